package export

import (
	"encoding/json"
	"io"

	"github.com/budziq/link-checker/internal/scanner"
)

type jsonReport struct {
	Links     int          `json:"links"`
	Failures  int          `json:"failures"`
	Unique    int          `json:"unique"`
	Documents []jsonRecord `json:"documents"`
}

type jsonRecord struct {
	Document    string   `json:"document"`
	BrokenLinks []string `json:"broken_links"`
}

// JSONExporter writes the failure report as indented JSON.
type JSONExporter struct{}

func (e *JSONExporter) Export(w io.Writer, stats scanner.Stats, failures *scanner.FailureMap) error {
	report := jsonReport{
		Links:     stats.Links,
		Failures:  stats.Failures,
		Unique:    stats.Unique,
		Documents: []jsonRecord{},
	}
	for _, doc := range failures.Documents() {
		report.Documents = append(report.Documents, jsonRecord{
			Document:    doc,
			BrokenLinks: failures.Targets(doc),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(report)
}
