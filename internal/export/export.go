// Package export writes the failure report to machine-readable formats
// for consumption by CI tooling.
package export

import (
	"io"

	"github.com/budziq/link-checker/internal/scanner"
)

// Exporter writes a scan's failure report to w.
type Exporter interface {
	Export(w io.Writer, stats scanner.Stats, failures *scanner.FailureMap) error
}

// New returns the exporter for a format name ("json" or "csv"), or nil
// when the format is unknown.
func New(format string) Exporter {
	switch format {
	case "json":
		return &JSONExporter{}
	case "csv":
		return &CSVExporter{}
	}
	return nil
}
