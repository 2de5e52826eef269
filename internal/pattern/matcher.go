package pattern

import tt "github.com/gnolang/tcheck/internal/types"

// Matcher is the default line matcher and expression evaluator.
type Matcher struct{}

func (Matcher) MatchLine(stmt *tt.Statement, line string, vars tt.Bindings) (tt.Bindings, bool, error) {
	return MatchLine(stmt, line, vars)
}

func (Matcher) Evaluate(stmt *tt.Statement, vars tt.Bindings) (bool, error) {
	return Evaluate(stmt, vars)
}
