package types

import (
	"fmt"
	"regexp"
)

// Variant is the kind of a check statement.
type Variant int

const (
	_ Variant = iota
	// InOrder statements match the first line after the cursor.
	InOrder
	// NextLine statements must match the line right at the cursor.
	NextLine
	// DAG statements are matched as a group, in any line order.
	DAG
	// Not statements must not match any line skipped by the next match.
	Not
	// Eval statements evaluate an expression over the current bindings.
	Eval
)

func (v Variant) String() string {
	switch v {
	case InOrder:
		return "InOrder"
	case NextLine:
		return "NextLine"
	case DAG:
		return "DAG"
	case Not:
		return "Not"
	case Eval:
		return "Eval"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// Directive returns the keyword suffix used in check comments, e.g. "-DAG".
func (v Variant) Directive() string {
	switch v {
	case NextLine:
		return "-NEXT"
	case DAG:
		return "-DAG"
	case Not:
		return "-NOT"
	case Eval:
		return "-EVAL"
	default:
		return ""
	}
}

// Location points at a line of a source file.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ExpressionKind classifies the parts of a statement.
type ExpressionKind int

const (
	_ ExpressionKind = iota
	PlainText
	Pattern
	VarRef
	VarDef
	Separator
)

func (k ExpressionKind) String() string {
	switch k {
	case PlainText:
		return "PlainText"
	case Pattern:
		return "Pattern"
	case VarRef:
		return "VarRef"
	case VarDef:
		return "VarDef"
	case Separator:
		return "Separator"
	default:
		return fmt.Sprintf("ExpressionKind(%d)", int(k))
	}
}

// Expression is one part of a statement's pattern.
//
// Regexp is anchored at the start of the input and is nil for VarRef and
// Separator expressions.
type Expression struct {
	Kind   ExpressionKind
	Text   string
	Name   string
	Regexp *regexp.Regexp
}

// Statement is a single check directive. Statements are immutable once
// parsed and may be shared between concurrent runs.
type Statement struct {
	Variant     Variant
	Text        string
	Expressions []Expression
	Location    Location
}

func (s *Statement) String() string {
	return fmt.Sprintf("%s: %s", s.Variant, s.Text)
}

// TestCase is a named group of statements checked against one pass.
type TestCase struct {
	Name       string
	Statements []*Statement
	// Arch restricts the test case to one target architecture. Empty means
	// any architecture.
	Arch       string
	Debuggable bool
	Location   Location
}

// CheckerFile holds all test cases found in one source file.
type CheckerFile struct {
	FileName  string
	TestCases []*TestCase
}

// Pass is a named block of dump output.
type Pass struct {
	Name  string
	Lines []string
	// BaseLine is the line number of Lines[0] in the dump file.
	BaseLine int
	// LineNos optionally holds the dump line number of each entry of Lines,
	// for dumps where blank lines were dropped.
	LineNos []int
}

// AbsLine converts a line index of the pass into a dump file line number.
// The index one past the last line maps to the line after it.
func (p *Pass) AbsLine(index int) int {
	if len(p.LineNos) == len(p.Lines) && len(p.LineNos) > 0 {
		switch {
		case index < 0:
			return p.LineNos[0]
		case index < len(p.LineNos):
			return p.LineNos[index]
		default:
			return p.LineNos[len(p.LineNos)-1] + 1 + index - len(p.LineNos)
		}
	}
	return p.BaseLine + index
}

// DumpFile is a parsed compiler dump.
type DumpFile struct {
	FileName string
	Passes   []*Pass
}

// FindPass returns the first pass with the given name, or nil.
//
// Passes sharing a name (e.g. a pass run twice) are not told apart; only
// the first occurrence is ever returned.
func (d *DumpFile) FindPass(name string) *Pass {
	for _, p := range d.Passes {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PassNames lists the pass names in dump order.
func (d *DumpFile) PassNames() []string {
	names := make([]string, 0, len(d.Passes))
	for _, p := range d.Passes {
		names = append(names, p.Name)
	}
	return names
}
