package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors reported by line matchers and expression evaluators.
var (
	ErrUnboundVariable   = errors.New("unbound variable")
	ErrVariableRedefined = errors.New("variable redefined")
	ErrInvalidExpression = errors.New("invalid expression")
)

// ReasonKind tells why a test case failed.
type ReasonKind int

const (
	_ ReasonKind = iota
	NoMatchFound
	NotStatementViolated
	EvalFalse
	UnboundVariable
	PassNotFound
	VariableRedefined
	InvalidExpression
)

var reasonNames = map[ReasonKind]string{
	NoMatchFound:         "NoMatchFound",
	NotStatementViolated: "NotStatementViolated",
	EvalFalse:            "EvalFalse",
	UnboundVariable:      "UnboundVariable",
	PassNotFound:         "PassNotFound",
	VariableRedefined:    "VariableRedefined",
	InvalidExpression:    "InvalidExpression",
}

func (r ReasonKind) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ReasonKind(%d)", int(r))
}

func (r ReasonKind) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ReasonFor maps a matcher or evaluator error to a reason kind.
func ReasonFor(err error) ReasonKind {
	switch {
	case errors.Is(err, ErrUnboundVariable):
		return UnboundVariable
	case errors.Is(err, ErrVariableRedefined):
		return VariableRedefined
	default:
		return InvalidExpression
	}
}

// MatchFailure describes why a test case did not match its pass.
type MatchFailure struct {
	Reason ReasonKind `json:"reason"`
	// Statement is the offending statement. It is nil for PassNotFound and
	// for end-of-input failures.
	Statement *Statement `json:"-"`
	// LineIndex is relative to the pass; Line is the absolute dump line
	// and is set by the orchestrator. For PassNotFound, Line is the source
	// line of the test case.
	LineIndex int      `json:"lineIndex"`
	Line      int      `json:"line"`
	Bindings  Bindings `json:"bindings"`
	// Suggestion names a similar pass when the pass was not found.
	Suggestion string `json:"suggestion,omitempty"`
	// Passes lists the passes of the dump when the pass was not found.
	Passes []string `json:"passes,omitempty"`
	Err    error    `json:"-"`
}

func (f *MatchFailure) Error() string {
	switch f.Reason {
	case PassNotFound:
		return "test case not found in the dump file"
	case NotStatementViolated:
		return fmt.Sprintf("NOT statement matched line %d", f.Line)
	case EvalFalse:
		return "expression evaluated to false"
	case UnboundVariable, VariableRedefined, InvalidExpression:
		if f.Err != nil {
			return f.Err.Error()
		}
		return f.Reason.String()
	default:
		return fmt.Sprintf("statement could not be matched starting from line %d", f.Line)
	}
}

func (f *MatchFailure) Unwrap() error { return f.Err }

// MarshalJSON adds the statement text and the message to the encoding.
func (f *MatchFailure) MarshalJSON() ([]byte, error) {
	type failure MatchFailure
	out := struct {
		*failure
		Statement string    `json:"statement,omitempty"`
		Location  *Location `json:"statementLocation,omitempty"`
		Message   string    `json:"message"`
	}{
		failure: (*failure)(f),
		Message: f.Error(),
	}
	if f.Statement != nil {
		out.Statement = f.Statement.String()
		loc := f.Statement.Location
		out.Location = &loc
	}
	return json.Marshal(out)
}
