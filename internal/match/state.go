package match

import (
	"fmt"

	tt "github.com/gnolang/tcheck/internal/types"
)

// LineMatcher decides whether a single line satisfies a statement and
// evaluates eval statements. Implementations must be pure: the same input
// always yields the same result, and vars is never modified.
type LineMatcher interface {
	MatchLine(stmt *tt.Statement, line string, vars tt.Bindings) (tt.Bindings, bool, error)
	Evaluate(stmt *tt.Statement, vars tt.Bindings) (bool, error)
}

// Scope is a half-open range [Start, End) of pass line indices.
type Scope struct {
	Start, End int
}

// matchInfo is the result of a successful match: the covered line range
// (inclusive on both ends) and the bindings after the match.
type matchInfo struct {
	first, last int
	vars        tt.Bindings
}

// executionState runs the statements of one test case over one pass.
// It is created per run and never shared.
type executionState struct {
	pass    *tt.Pass
	matcher LineMatcher
	partial bool

	cursor   int
	vars     tt.Bindings
	dagQueue []*tt.Statement
	notQueue []*tt.Statement
}

func newExecutionState(pass *tt.Pass, matcher LineMatcher, partial bool) *executionState {
	return &executionState{
		pass:    pass,
		matcher: matcher,
		partial: partial,
	}
}

func (s *executionState) length() int { return len(s.pass.Lines) }

func (s *executionState) fail(reason tt.ReasonKind, stmt *tt.Statement, index int, vars tt.Bindings, err error) *tt.MatchFailure {
	return &tt.MatchFailure{
		Reason:    reason,
		Statement: stmt,
		LineIndex: index,
		Bindings:  vars,
		Err:       err,
	}
}

// findMatchingLine returns the first line in scope, not listed in exclude,
// that satisfies stmt.
func (s *executionState) findMatchingLine(stmt *tt.Statement, scope Scope, vars tt.Bindings, exclude map[int]bool) (matchInfo, *tt.MatchFailure) {
	for i := scope.Start; i < scope.End; i++ {
		if exclude[i] {
			continue
		}
		next, ok, err := s.matcher.MatchLine(stmt, s.pass.Lines[i], vars)
		if err != nil {
			return matchInfo{}, s.fail(tt.ReasonFor(err), stmt, i, vars, err)
		}
		if ok {
			return matchInfo{first: i, last: i, vars: next}, nil
		}
	}
	return matchInfo{}, s.fail(tt.NoMatchFound, stmt, scope.Start, vars, nil)
}

// moveCursor verifies pending NOT statements over the lines skipped by the
// match and advances the cursor past it.
func (s *executionState) moveCursor(m matchInfo) *tt.MatchFailure {
	if m.first < s.cursor {
		panic(fmt.Sprintf("match at %d before cursor %d", m.first, s.cursor))
	}
	if f := s.handleNotQueue(Scope{Start: s.cursor, End: m.first}); f != nil {
		return f
	}
	s.cursor = m.last + 1
	s.vars = m.vars
	return nil
}

// handleNotQueue fails if any queued NOT statement matches a line in scope.
func (s *executionState) handleNotQueue(scope Scope) *tt.MatchFailure {
	for _, stmt := range s.notQueue {
		for i := scope.Start; i < scope.End; i++ {
			_, ok, err := s.matcher.MatchLine(stmt, s.pass.Lines[i], s.vars)
			if err != nil {
				return s.fail(tt.ReasonFor(err), stmt, i, s.vars, err)
			}
			if ok {
				return s.fail(tt.NotStatementViolated, stmt, i, s.vars, nil)
			}
		}
	}
	s.notQueue = nil
	return nil
}

// handleDAGQueue matches the queued DAG statements in list order. Each one
// takes the earliest line in scope not claimed by an earlier statement of
// the group; bindings thread through the group. The group then acts as a
// single match covering its lowest and highest line.
func (s *executionState) handleDAGQueue(scope Scope) *tt.MatchFailure {
	if len(s.dagQueue) == 0 {
		return nil
	}

	var (
		claimed = make(map[int]bool, len(s.dagQueue))
		vars    = s.vars
		group   = matchInfo{first: scope.End, last: -1}
	)
	for _, stmt := range s.dagQueue {
		m, f := s.findMatchingLine(stmt, scope, vars, claimed)
		if f != nil {
			return f
		}
		claimed[m.first] = true
		vars = m.vars
		group.first = min(group.first, m.first)
		group.last = max(group.last, m.last)
	}
	group.vars = vars

	s.dagQueue = nil
	return s.moveCursor(group)
}

func (s *executionState) handleInOrder(stmt *tt.Statement) *tt.MatchFailure {
	m, f := s.findMatchingLine(stmt, Scope{Start: s.cursor, End: s.length()}, s.vars, nil)
	if f != nil {
		return f
	}
	return s.moveCursor(m)
}

func (s *executionState) handleNextLine(stmt *tt.Statement) *tt.MatchFailure {
	end := min(s.cursor+1, s.length())
	m, f := s.findMatchingLine(stmt, Scope{Start: s.cursor, End: end}, s.vars, nil)
	if f != nil {
		return f
	}
	return s.moveCursor(m)
}

func (s *executionState) handleEval(stmt *tt.Statement) *tt.MatchFailure {
	ok, err := s.matcher.Evaluate(stmt, s.vars)
	if err != nil {
		return s.fail(tt.ReasonFor(err), stmt, s.cursor, s.vars, err)
	}
	if !ok {
		return s.fail(tt.EvalFalse, stmt, s.cursor, s.vars, nil)
	}
	return nil
}

// handleEOF requires the statements to have consumed the whole pass: a
// cursor short of the end fails at the empty scope [len, len). In partial
// mode the end of input matches that scope instead, and pending NOT
// statements are checked against the rest of the pass.
func (s *executionState) handleEOF() *tt.MatchFailure {
	n := s.length()
	if !s.partial && s.cursor != n {
		return s.fail(tt.NoMatchFound, nil, n, s.vars, nil)
	}
	if f := s.handleNotQueue(Scope{Start: s.cursor, End: n}); f != nil {
		return f
	}
	s.cursor = n
	return nil
}

// handle processes one statement. Every statement that is not a DAG
// statement first resolves the pending DAG group.
func (s *executionState) handle(stmt *tt.Statement) *tt.MatchFailure {
	if stmt.Variant != tt.DAG {
		if f := s.handleDAGQueue(Scope{Start: s.cursor, End: s.length()}); f != nil {
			return f
		}
	}

	switch stmt.Variant {
	case tt.InOrder:
		return s.handleInOrder(stmt)
	case tt.NextLine:
		return s.handleNextLine(stmt)
	case tt.DAG:
		s.dagQueue = append(s.dagQueue, stmt)
	case tt.Not:
		s.notQueue = append(s.notQueue, stmt)
	case tt.Eval:
		return s.handleEval(stmt)
	default:
		panic(fmt.Sprintf("unknown statement variant %s", stmt.Variant))
	}
	return nil
}

// finish flushes the DAG queue and handles the end of input.
func (s *executionState) finish() *tt.MatchFailure {
	if f := s.handleDAGQueue(Scope{Start: s.cursor, End: s.length()}); f != nil {
		return f
	}
	return s.handleEOF()
}
