package export

import "fmt"

// Report is a titled table rendered by the CSV and PDF exporters.
type Report struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
}

// Validate checks the report is renderable.
func (r Report) Validate() error {
	if len(r.Headers) == 0 {
		return fmt.Errorf("report requires at least one header")
	}
	for i, row := range r.Rows {
		if len(row) != len(r.Headers) {
			return fmt.Errorf("row %d has %d cells, expected %d", i, len(row), len(r.Headers))
		}
	}
	return nil
}
