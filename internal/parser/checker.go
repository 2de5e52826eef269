package parser

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/gnolang/tcheck/internal/pattern"
	tt "github.com/gnolang/tcheck/internal/types"
)

// DefaultPrefix is the directive prefix used when none is configured.
const DefaultPrefix = "CHECK"

// Architectures lists the values accepted in a START-<ARCH> directive.
var Architectures = []string{"ARM", "ARM64", "MIPS", "MIPS64", "X86", "X86_64", "RISCV64"}

// commentLeader matches the comment markers a checker line can start with.
var commentLeader = regexp.MustCompile(`^(?://+|#+)\s*`)

type checkerItem struct {
	stmt *tt.Statement
}

type checkerHeader struct {
	name       string
	arch       string
	debuggable bool
}

// ParseCheckerFile parses the checker directives of a source file.
func ParseCheckerFile(path, prefix string) (*tt.CheckerFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()
	return ParseCheckerStream(path, prefix, f)
}

// ParseCheckerStream parses checker directives read from r. Lines that are
// not comments starting with the prefix are ignored.
func ParseCheckerStream(fileName, prefix string, r io.Reader) (*tt.CheckerFile, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	processLine := func(line string, lineNo int) (*checkerItem, *checkerHeader, error) {
		directive, text, ok := splitDirective(line, prefix)
		if !ok {
			return nil, nil, nil
		}
		loc := tt.Location{File: fileName, Line: lineNo}

		if header, ok, err := parseStart(directive, text); ok || err != nil {
			if err != nil {
				return nil, nil, &ParseError{File: fileName, Line: lineNo, Msg: err.Error()}
			}
			return nil, header, nil
		}

		variant, ok := variantOf(directive)
		if !ok {
			return nil, nil, parseErrorf(fileName, lineNo, "unrecognised directive %s%s", prefix, directive)
		}
		if text == "" {
			return nil, nil, parseErrorf(fileName, lineNo, "empty %s statement", variant)
		}
		stmt, err := pattern.ParseStatement(variant, text, loc)
		if err != nil {
			return nil, nil, &ParseError{File: fileName, Line: lineNo, Msg: err.Error()}
		}
		return &checkerItem{stmt: stmt}, nil, nil
	}

	outside := func(_ string, lineNo int) error {
		return parseErrorf(fileName, lineNo, "checker statement found outside a test case")
	}

	chunks, err := SplitStream(r, processLine, outside)
	if err != nil {
		return nil, err
	}

	checker := &tt.CheckerFile{FileName: fileName}
	for _, c := range chunks {
		if len(c.Items) == 0 {
			return nil, parseErrorf(fileName, c.Line, "test case %q has no statements", c.Header.name)
		}
		tc := &tt.TestCase{
			Name:       c.Header.name,
			Arch:       c.Header.arch,
			Debuggable: c.Header.debuggable,
			Location:   tt.Location{File: fileName, Line: c.Line},
			Statements: make([]*tt.Statement, 0, len(c.Items)),
		}
		for _, it := range c.Items {
			tc.Statements = append(tc.Statements, it.stmt)
		}
		checker.TestCases = append(checker.TestCases, tc)
	}
	return checker, nil
}

// splitDirective recognises "<comment> PREFIX<directive>: text". The
// returned directive is the part between the prefix and the colon, e.g.
// "-NEXT" or "".
func splitDirective(line, prefix string) (directive, text string, ok bool) {
	loc := commentLeader.FindStringIndex(line)
	if loc == nil {
		return "", "", false
	}
	rest := line[loc[1]:]
	if !strings.HasPrefix(rest, prefix) {
		return "", "", false
	}
	rest = rest[len(prefix):]
	if rest == "" || (rest[0] != ':' && rest[0] != '-') {
		return "", "", false
	}
	directive, text, ok = strings.Cut(rest, ":")
	if !ok || strings.ContainsAny(directive, " \t") {
		return "", "", false
	}
	return directive, strings.TrimSpace(text), true
}

// parseStart parses a "-START[-ARCH][-DEBUGGABLE]" directive. ok is false
// when the directive is not a START directive.
func parseStart(directive, name string) (*checkerHeader, bool, error) {
	rest, ok := strings.CutPrefix(directive, "-START")
	if !ok {
		return nil, false, nil
	}

	header := &checkerHeader{name: name}
	if r, ok := strings.CutSuffix(rest, "-DEBUGGABLE"); ok {
		header.debuggable = true
		rest = r
	}
	if rest != "" {
		arch, ok := strings.CutPrefix(rest, "-")
		if !ok || !slices.Contains(Architectures, arch) {
			return nil, true, fmt.Errorf("unknown architecture %q", strings.TrimPrefix(rest, "-"))
		}
		header.arch = arch
	}
	if name == "" {
		return nil, true, fmt.Errorf("test case name is empty")
	}
	return header, true, nil
}

func variantOf(directive string) (tt.Variant, bool) {
	for _, v := range []tt.Variant{tt.InOrder, tt.NextLine, tt.DAG, tt.Not, tt.Eval} {
		if v.Directive() == directive {
			return v, true
		}
	}
	return 0, false
}
