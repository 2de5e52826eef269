package pattern

import (
	"fmt"
	"regexp"
	"strings"

	tt "github.com/gnolang/tcheck/internal/types"
)

// MatchLine matches a statement against one line of dump output.
//
// The statement's expressions are grouped into words at separators, and the
// line is split into whitespace separated words. Every statement word must
// match a whole line word, in order; line words in between are ignored. The
// first line word that fits is taken, without backtracking.
//
// On success it returns the bindings extended with any variables defined by
// the statement. vars itself is never modified.
func MatchLine(stmt *tt.Statement, line string, vars tt.Bindings) (tt.Bindings, bool, error) {
	if stmt.Variant == tt.Eval {
		return vars, false, fmt.Errorf("%w: eval statement cannot match a line", tt.ErrInvalidExpression)
	}

	words := strings.Fields(line)
	for _, checkWord := range splitAtSeparators(stmt.Expressions) {
		matched := false
		for len(words) > 0 {
			word := words[0]
			words = words[1:]
			next, ok, err := matchWord(checkWord, word, vars)
			if err != nil {
				return vars, false, err
			}
			if ok {
				vars = next
				matched = true
				break
			}
		}
		if !matched {
			return vars, false, nil
		}
	}
	return vars, true, nil
}

// splitAtSeparators groups expressions into words. Empty words are dropped.
func splitAtSeparators(exprs []tt.Expression) [][]tt.Expression {
	var (
		res   [][]tt.Expression
		start int
	)
	for i, e := range exprs {
		if e.Kind == tt.Separator {
			if i > start {
				res = append(res, exprs[start:i])
			}
			start = i + 1
		}
	}
	if start < len(exprs) {
		res = append(res, exprs[start:])
	}
	return res
}

// matchWord matches expressions one after the other from the start of word.
// The whole word must be consumed.
func matchWord(exprs []tt.Expression, word string, vars tt.Bindings) (tt.Bindings, bool, error) {
	for _, e := range exprs {
		rx := e.Regexp
		if e.Kind == tt.VarRef {
			value, ok := vars.Get(e.Name)
			if !ok {
				return vars, false, fmt.Errorf("%w: missing definition of variable %q", tt.ErrUnboundVariable, e.Name)
			}
			rx = regexp.MustCompile("^" + regexp.QuoteMeta(value))
		}
		if rx == nil {
			return vars, false, fmt.Errorf("%w: %s expression has no pattern", tt.ErrInvalidExpression, e.Kind)
		}

		loc := rx.FindStringIndex(word)
		if loc == nil {
			return vars, false, nil
		}
		if e.Kind == tt.VarDef {
			if vars.Has(e.Name) {
				return vars, false, fmt.Errorf("%w: multiple definitions of variable %q", tt.ErrVariableRedefined, e.Name)
			}
			vars = vars.With(e.Name, word[:loc[1]])
		}
		word = word[loc[1]:]
	}
	if word != "" {
		return vars, false, nil
	}
	return vars, true, nil
}
