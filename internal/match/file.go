package match

import (
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/gnolang/tcheck/internal/pattern"
	tt "github.com/gnolang/tcheck/internal/types"
)

// Options select the test cases to run and how to run them.
type Options struct {
	// Arch is the target architecture. Test cases restricted to another
	// architecture are skipped.
	Arch string
	// Debuggable selects test cases written for debuggable compilation.
	Debuggable bool
	// Partial accepts a test case whose statements stop before the end of
	// the pass. By default the whole pass must be consumed.
	Partial bool
	// Parallel runs the test cases of a file concurrently.
	Parallel bool
	// Matcher overrides the default line matcher.
	Matcher LineMatcher
}

func (o Options) matcher() LineMatcher {
	if o.Matcher != nil {
		return o.Matcher
	}
	return pattern.Matcher{}
}

// MatchTestCase runs a test case against a pass. It returns nil when every
// statement is satisfied.
func MatchTestCase(tc *tt.TestCase, pass *tt.Pass, opts Options) *tt.MatchFailure {
	state := newExecutionState(pass, opts.matcher(), opts.Partial)
	for _, stmt := range tc.Statements {
		if f := state.handle(stmt); f != nil {
			return withLine(f, pass)
		}
	}
	if f := state.finish(); f != nil {
		return withLine(f, pass)
	}
	return nil
}

func withLine(f *tt.MatchFailure, pass *tt.Pass) *tt.MatchFailure {
	f.Line = pass.AbsLine(f.LineIndex)
	return f
}

// Applies reports whether a test case is selected by the options.
func (o Options) Applies(tc *tt.TestCase) bool {
	if tc.Arch != "" && tc.Arch != o.Arch {
		return false
	}
	return tc.Debuggable == o.Debuggable
}

// MatchFiles runs all applicable test cases of a checker file against the
// dump. A failing test case does not stop the others; results are returned
// in declaration order.
func MatchFiles(checker *tt.CheckerFile, dump *tt.DumpFile, opts Options) *tt.FileReport {
	report := &tt.FileReport{
		FileName: checker.FileName,
		DumpFile: dump.FileName,
		Results:  make([]*tt.TestResult, len(checker.TestCases)),
	}

	run := func(i int, tc *tt.TestCase) {
		report.Results[i] = runTestCase(tc, dump, opts)
	}

	if !opts.Parallel {
		for i, tc := range checker.TestCases {
			run(i, tc)
		}
		return report
	}

	var wg sync.WaitGroup
	for i, tc := range checker.TestCases {
		wg.Add(1)
		go func(i int, tc *tt.TestCase) {
			defer wg.Done()
			run(i, tc)
		}(i, tc)
	}
	wg.Wait()
	return report
}

func runTestCase(tc *tt.TestCase, dump *tt.DumpFile, opts Options) *tt.TestResult {
	res := &tt.TestResult{
		TestCase: tc,
		Name:     tc.Name,
		Location: tc.Location,
	}
	if !opts.Applies(tc) {
		res.Status = tt.Skipped
		return res
	}

	// Only the first pass of a given name is ever checked.
	pass := dump.FindPass(tc.Name)
	if pass == nil {
		res.Status = tt.Failed
		names := dump.PassNames()
		res.Failure = &tt.MatchFailure{
			Reason:     tt.PassNotFound,
			Line:       tc.Location.Line,
			Suggestion: closestPass(tc.Name, names),
			Passes:     names,
		}
		return res
	}

	res.Pass = pass
	if f := MatchTestCase(tc, pass, opts); f != nil {
		res.Status = tt.Failed
		res.Failure = f
		return res
	}
	res.Status = tt.Passed
	return res
}

// closestPass finds the pass name most similar to target: the best fuzzy
// subsequence hit, or else the nearest name by edit distance.
func closestPass(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	if ranks := fuzzy.RankFindFold(target, candidates); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", len(target)/2+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
