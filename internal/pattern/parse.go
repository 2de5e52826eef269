package pattern

import (
	"fmt"
	"regexp"

	tt "github.com/gnolang/tcheck/internal/types"
)

// Variable names accepted in <<Name>> and <<Name:regex>>.
const namePattern = `[a-zA-Z][a-zA-Z0-9]*`

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	patternRegex    = regexp.MustCompile(`\{\{.*?\}\}`)
	varRefRegex     = regexp.MustCompile(`<<` + namePattern + `>>`)
	varDefRegex     = regexp.MustCompile(`<<` + namePattern + `:.*?>>`)
)

// ParseStatement splits the text of a check directive into expressions.
//
//	{{regex}}         matches regex
//	<<Name>>          matches the value bound to Name
//	<<Name:regex>>    matches regex and binds the matched text to Name
//	whitespace        separates words
//
// Everything else is matched literally. Eval statements only recognise
// variable references; the rest of their text is kept verbatim.
func ParseStatement(variant tt.Variant, text string, loc tt.Location) (*tt.Statement, error) {
	stmt := &tt.Statement{
		Variant:  variant,
		Text:     text,
		Location: loc,
	}
	isEval := variant == tt.Eval

	line := text
	for line != "" {
		var ws, pat, def []int
		if !isEval {
			ws = whitespaceRegex.FindStringIndex(line)
			pat = patternRegex.FindStringIndex(line)
			def = varDefRegex.FindStringIndex(line)
		}
		ref := varRefRegex.FindStringIndex(line)

		switch {
		case atStart(ws):
			line = line[ws[1]:]
			stmt.Expressions = append(stmt.Expressions, tt.Expression{Kind: tt.Separator})
		case atStart(pat):
			body := line[2 : pat[1]-2]
			line = line[pat[1]:]
			rx, err := compileAnchored(body)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern {{%s}}: %w", body, err)
			}
			stmt.Expressions = append(stmt.Expressions, tt.Expression{
				Kind:   tt.Pattern,
				Text:   body,
				Regexp: rx,
			})
		case atStart(ref):
			name := line[2 : ref[1]-2]
			line = line[ref[1]:]
			stmt.Expressions = append(stmt.Expressions, tt.Expression{
				Kind: tt.VarRef,
				Name: name,
			})
		case atStart(def):
			v := line[2 : def[1]-2]
			line = line[def[1]:]
			name, body := splitDefinition(v)
			rx, err := compileAnchored(body)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern in definition of %q: %w", name, err)
			}
			stmt.Expressions = append(stmt.Expressions, tt.Expression{
				Kind:   tt.VarDef,
				Name:   name,
				Text:   body,
				Regexp: rx,
			})
		default:
			end := firstStart(len(line), ws, pat, ref, def)
			lit := line[:end]
			line = line[end:]
			e := tt.Expression{Kind: tt.PlainText, Text: lit}
			if !isEval {
				e.Regexp = regexp.MustCompile("^" + regexp.QuoteMeta(lit))
			}
			stmt.Expressions = append(stmt.Expressions, e)
		}
	}
	return stmt, nil
}

// VarRefs returns the names referenced by a statement, in order.
func VarRefs(stmt *tt.Statement) []string {
	var names []string
	for _, e := range stmt.Expressions {
		if e.Kind == tt.VarRef {
			names = append(names, e.Name)
		}
	}
	return names
}

func atStart(loc []int) bool {
	return loc != nil && loc[0] == 0
}

// firstStart returns the smallest start offset among the matches, or n if
// nothing matched.
func firstStart(n int, locs ...[]int) int {
	res := n
	for _, loc := range locs {
		if loc != nil && loc[0] < res {
			res = loc[0]
		}
	}
	return res
}

func splitDefinition(v string) (name, body string) {
	for i := 0; i < len(v); i++ {
		if v[i] == ':' {
			return v[:i], v[i+1:]
		}
	}
	return v, ""
}

func compileAnchored(expr string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + expr + `)`)
}
