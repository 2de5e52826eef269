package formatter

import (
	"encoding/json"
	"io"

	tt "github.com/gnolang/tcheck/internal/types"
)

type jsonOutput struct {
	Reports []*tt.FileReport `json:"reports"`
	Summary Summary          `json:"summary"`
}

// WriteJSON writes the reports and their summary as one JSON document.
func WriteJSON(w io.Writer, reports []*tt.FileReport, errors int) error {
	if reports == nil {
		reports = []*tt.FileReport{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput{
		Reports: reports,
		Summary: Summarize(reports, errors),
	})
}
