package export

import (
	"io"

	"github.com/gocarina/gocsv"

	"github.com/budziq/link-checker/internal/scanner"
)

type csvRow struct {
	Document   string `csv:"Document"`
	BrokenLink string `csv:"Broken Link"`
}

// CSVExporter writes one row per broken link.
type CSVExporter struct{}

func (e *CSVExporter) Export(w io.Writer, _ scanner.Stats, failures *scanner.FailureMap) error {
	rows := []csvRow{}
	for _, doc := range failures.Documents() {
		for _, target := range failures.Targets(doc) {
			rows = append(rows, csvRow{Document: doc, BrokenLink: target})
		}
	}
	return gocsv.Marshal(&rows, w)
}
