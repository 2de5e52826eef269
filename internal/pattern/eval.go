package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	tt "github.com/gnolang/tcheck/internal/types"
)

// identPrefix keeps variable names apart from the evaluator's builtins
// (len, max, all, ...).
const identPrefix = "_"

// Evaluate evaluates an eval statement over the given bindings.
//
// Variable references become identifiers of the expression; bound values
// that parse as numbers are compared as numbers, everything else as strings.
// A reference inside a string literal is replaced by its value instead.
// Referencing an unbound variable is an error, never a silent false.
func Evaluate(stmt *tt.Statement, vars tt.Bindings) (bool, error) {
	if stmt.Variant != tt.Eval {
		return false, fmt.Errorf("%w: %s statement cannot be evaluated", tt.ErrInvalidExpression, stmt.Variant)
	}

	var (
		src strings.Builder
		lit literalScanner
		env = make(map[string]any)
	)
	for _, e := range stmt.Expressions {
		switch e.Kind {
		case tt.VarRef:
			value, ok := vars.Get(e.Name)
			if !ok {
				return false, fmt.Errorf("%w: missing definition of variable %q", tt.ErrUnboundVariable, e.Name)
			}
			if lit.quote != 0 {
				text, ok := quoteIn(value, lit.quote)
				if !ok {
					return false, fmt.Errorf("%w: %q: value of %q cannot appear in a %c literal", tt.ErrInvalidExpression, stmt.Text, e.Name, lit.quote)
				}
				src.WriteString(text)
				continue
			}
			ident := identPrefix + e.Name
			env[ident] = evalValue(value)
			src.WriteString(" ")
			src.WriteString(ident)
			src.WriteString(" ")
		default:
			lit.scan(e.Text)
			src.WriteString(e.Text)
		}
	}
	if lit.quote != 0 {
		return false, fmt.Errorf("%w: %q: unterminated string literal", tt.ErrInvalidExpression, stmt.Text)
	}

	program, err := expr.Compile(src.String(), expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("%w: %q: %v", tt.ErrInvalidExpression, stmt.Text, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("%w: %q: %v", tt.ErrInvalidExpression, stmt.Text, err)
	}
	res, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q does not evaluate to a boolean", tt.ErrInvalidExpression, stmt.Text)
	}
	return res, nil
}

// evalValue converts a captured value into an int, a float64 or a string.
func evalValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "-0x") {
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return int(i)
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// literalScanner tracks whether the expression text written so far ends
// inside a string literal.
type literalScanner struct {
	quote   byte // opening quote of the current literal, 0 outside
	escaped bool
}

func (l *literalScanner) scan(text string) {
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case l.quote == 0:
			if c == '"' || c == '\'' || c == '`' {
				l.quote = c
			}
		case l.escaped:
			l.escaped = false
		case c == '\\' && l.quote != '`':
			l.escaped = true
		case c == l.quote:
			l.quote = 0
		}
	}
}

var singleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quoteIn escapes value for use inside a literal opened by quote. Raw
// literals cannot hold a backquote.
func quoteIn(value string, quote byte) (string, bool) {
	switch quote {
	case '"':
		q := strconv.Quote(value)
		return q[1 : len(q)-1], true
	case '\'':
		return singleQuoteEscaper.Replace(value), true
	default:
		return value, !strings.ContainsRune(value, '`')
	}
}
