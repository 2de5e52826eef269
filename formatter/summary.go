package formatter

import (
	"fmt"

	tt "github.com/gnolang/tcheck/internal/types"
)

// Summary counts test case outcomes over several reports.
type Summary struct {
	Files   int `json:"files"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	// Errors counts files that could not be checked at all.
	Errors int `json:"errors"`
}

func Summarize(reports []*tt.FileReport, errors int) Summary {
	s := Summary{Files: len(reports), Errors: errors}
	for _, r := range reports {
		s.Passed += r.Count(tt.Passed)
		s.Failed += r.Count(tt.Failed)
		s.Skipped += r.Count(tt.Skipped)
	}
	return s
}

// OK reports whether every checked test case passed and no file failed to
// parse.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.Errors == 0
}

func (s Summary) String() string {
	str := fmt.Sprintf("%s, %s, %s in %d file(s)",
		passStyle.Sprintf("%d passed", s.Passed),
		errorStyle.Sprintf("%d failed", s.Failed),
		skipStyle.Sprintf("%d skipped", s.Skipped),
		s.Files,
	)
	if s.Errors > 0 {
		str += errorStyle.Sprintf(", %d error(s)", s.Errors)
	}
	return str
}

// FileStatus renders a one-line status for a report, e.g.
// "FAIL Main.java (1 passed, 1 failed, 0 skipped)".
func FileStatus(report *tt.FileReport) string {
	status := passStyle.Sprint(tt.Passed.String())
	if !report.OK() {
		status = errorStyle.Sprint(tt.Failed.String())
	}
	return fmt.Sprintf("%s %s (%d passed, %d failed, %d skipped)",
		status,
		fileStyle.Sprint(report.FileName),
		report.Count(tt.Passed),
		report.Count(tt.Failed),
		report.Count(tt.Skipped),
	)
}
