package types

// Status is the outcome of one test case.
type Status int

const (
	_ Status = iota
	Passed
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "PASS"
	case Failed:
		return "FAIL"
	case Skipped:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TestResult is the outcome of matching one test case.
type TestResult struct {
	TestCase *TestCase     `json:"-"`
	Name     string        `json:"name"`
	Location Location      `json:"location"`
	Status   Status        `json:"status"`
	Pass     *Pass         `json:"-"`
	Failure  *MatchFailure `json:"failure,omitempty"`
}

// FileReport aggregates the results of one checker file.
type FileReport struct {
	FileName string        `json:"file"`
	DumpFile string        `json:"dump"`
	Results  []*TestResult `json:"results"`
}

// Count returns the number of results with the given status.
func (r *FileReport) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the failed results in declaration order.
func (r *FileReport) Failures() []*TestResult {
	var res []*TestResult
	for _, tr := range r.Results {
		if tr.Status == Failed {
			res = append(res, tr)
		}
	}
	return res
}

// OK reports whether no test case failed.
func (r *FileReport) OK() bool {
	return r.Count(Failed) == 0
}
