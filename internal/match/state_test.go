package match

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/tcheck/internal/pattern"
	tt "github.com/gnolang/tcheck/internal/types"
)

func newPass(lines ...string) *tt.Pass {
	return &tt.Pass{Name: "test", Lines: lines, BaseLine: 100}
}

func stmt(t *testing.T, variant tt.Variant, text string) *tt.Statement {
	t.Helper()
	s, err := pattern.ParseStatement(variant, text, tt.Location{File: "Main.java", Line: 1})
	require.NoError(t, err)
	return s
}

func inOrder(t *testing.T, text string) *tt.Statement  { return stmt(t, tt.InOrder, text) }
func nextLine(t *testing.T, text string) *tt.Statement { return stmt(t, tt.NextLine, text) }
func dag(t *testing.T, text string) *tt.Statement      { return stmt(t, tt.DAG, text) }
func not(t *testing.T, text string) *tt.Statement      { return stmt(t, tt.Not, text) }
func eval(t *testing.T, text string) *tt.Statement     { return stmt(t, tt.Eval, text) }

// run feeds the statements and the end of input to a fresh state.
func run(pass *tt.Pass, partial bool, stmts ...*tt.Statement) (*executionState, *tt.MatchFailure) {
	s := newExecutionState(pass, pattern.Matcher{}, partial)
	for _, st := range stmts {
		if f := s.handle(st); f != nil {
			return s, f
		}
	}
	return s, s.finish()
}

func TestInOrderSuccess(t *testing.T) {
	t.Parallel()

	pass := newPass("1: Add v0,v1", "2: Return")
	s, f := run(pass, false, inOrder(t, "Add"), inOrder(t, "Return"))
	require.Nil(t, f)
	assert.Equal(t, 2, s.cursor)
}

func TestInOrderFailure(t *testing.T) {
	t.Parallel()

	pass := newPass("1: Add v0,v1", "2: Return")
	mul := inOrder(t, "Mul")
	f := MatchTestCase(&tt.TestCase{Statements: []*tt.Statement{mul}}, pass, Options{})
	require.NotNil(t, f)
	assert.Equal(t, tt.NoMatchFound, f.Reason)
	assert.Same(t, mul, f.Statement)
	assert.Equal(t, 0, f.LineIndex)
	assert.Equal(t, 100, f.Line)
}

func TestInOrderStrictness(t *testing.T) {
	t.Parallel()

	pass := newPass("Add", "Add", "Return")
	s := newExecutionState(pass, pattern.Matcher{}, false)

	last := -1
	for _, st := range []*tt.Statement{inOrder(t, "Add"), inOrder(t, "Add"), inOrder(t, "Return")} {
		require.Nil(t, s.handle(st))
		matched := s.cursor - 1
		assert.Greater(t, matched, last)
		last = matched
	}

	_, f := run(pass, false, inOrder(t, "Return"), inOrder(t, "Add"))
	require.NotNil(t, f)
	assert.Equal(t, tt.NoMatchFound, f.Reason)
	assert.Equal(t, 3, f.LineIndex)
}

func TestNextLine(t *testing.T) {
	t.Parallel()

	pass := newPass("a", "b", "c")

	s, f := run(pass, false, inOrder(t, "a"), nextLine(t, "b"), nextLine(t, "c"))
	require.Nil(t, f)
	assert.Equal(t, 3, s.cursor)

	_, f = run(pass, false, inOrder(t, "a"), nextLine(t, "c"))
	require.NotNil(t, f)
	assert.Equal(t, tt.NoMatchFound, f.Reason)
	assert.Equal(t, 1, f.LineIndex)

	_, f = run(pass, false, inOrder(t, "c"), nextLine(t, "c"))
	require.NotNil(t, f)
	assert.Equal(t, tt.NoMatchFound, f.Reason, "nothing left after the last line")
	assert.Equal(t, 3, f.LineIndex)
}

func TestDAGUnordered(t *testing.T) {
	t.Parallel()

	pass := newPass("x", "y")
	s := newExecutionState(pass, pattern.Matcher{}, false)
	require.Nil(t, s.handle(dag(t, "y")))
	require.Nil(t, s.handle(dag(t, "x")))
	assert.Equal(t, 0, s.cursor, "DAG statements are buffered")
	assert.Len(t, s.dagQueue, 2)

	require.Nil(t, s.finish())
	assert.Equal(t, 2, s.cursor)
	assert.Empty(t, s.dagQueue)
}

func TestDAGDistinctLines(t *testing.T) {
	t.Parallel()

	s, f := run(newPass("x", "x"), false, dag(t, "x"), dag(t, "x"))
	require.Nil(t, f)
	assert.Equal(t, 2, s.cursor)

	y := dag(t, "y")
	_, f = run(newPass("x"), false, dag(t, "x"), y)
	require.NotNil(t, f)
	assert.Equal(t, tt.NoMatchFound, f.Reason)
	assert.Same(t, y, f.Statement)
	assert.Equal(t, 0, f.LineIndex)

	_, f = run(newPass("x", "y"), false, dag(t, "x"), dag(t, "x"))
	require.NotNil(t, f, "a line is claimed at most once per group")
}

func TestDAGGroupScope(t *testing.T) {
	t.Parallel()

	// The group covers lines 1..3; the NOT guards only [0, 1).
	pass := newPass("skip", "b", "Sub", "a", "tail")
	s, f := run(pass, false, not(t, "Sub"), dag(t, "a"), dag(t, "b"), inOrder(t, "tail"))
	require.Nil(t, f)
	assert.Equal(t, 5, s.cursor)

	_, f = run(pass, false, not(t, "skip"), dag(t, "a"), dag(t, "b"))
	require.NotNil(t, f)
	assert.Equal(t, tt.NotStatementViolated, f.Reason)
	assert.Equal(t, 0, f.LineIndex)
}

func TestDAGFlushedByNonDAG(t *testing.T) {
	t.Parallel()

	pass := newPass("b", "a", "c", "a")
	s := newExecutionState(pass, pattern.Matcher{}, false)
	require.Nil(t, s.handle(dag(t, "a")))
	require.Nil(t, s.handle(dag(t, "b")))
	require.Nil(t, s.handle(inOrder(t, "a")))
	assert.Equal(t, 4, s.cursor)
}

func TestDAGBindingsThreadInGroupOrder(t *testing.T) {
	t.Parallel()

	pass := newPass("Use [i1]", "i1 Def")
	s, f := run(pass, false, dag(t, `<<X:i\d+>> Def`), dag(t, "Use [<<X>>]"))
	require.Nil(t, f)
	v, _ := s.vars.Get("X")
	assert.Equal(t, "i1", v)

	// Reversed, the reference comes before the definition.
	_, f = run(pass, false, dag(t, "Use [<<X>>]"), dag(t, `<<X:i\d+>> Def`))
	require.NotNil(t, f)
	assert.Equal(t, tt.UnboundVariable, f.Reason)
}

func TestNotGuardingSkip(t *testing.T) {
	t.Parallel()

	pass := newPass("a", "b", "c")
	notB := not(t, "b")
	_, f := run(pass, false, notB, inOrder(t, "c"))
	require.NotNil(t, f)
	assert.Equal(t, tt.NotStatementViolated, f.Reason)
	assert.Same(t, notB, f.Statement)
	assert.Equal(t, 1, f.LineIndex)
}

func TestNotSoundness(t *testing.T) {
	t.Parallel()

	pass := newPass("a", "b", "c", "d")

	tests := []struct {
		name  string
		stmts func(t *testing.T) []*tt.Statement
		fail  bool
	}{
		{"absent from skipped scope", func(t *testing.T) []*tt.Statement {
			return []*tt.Statement{not(t, "x"), inOrder(t, "c")}
		}, false},
		{"matched line itself is not guarded", func(t *testing.T) []*tt.Statement {
			return []*tt.Statement{not(t, "c"), inOrder(t, "c")}
		}, false},
		{"line after the match is not guarded", func(t *testing.T) []*tt.Statement {
			return []*tt.Statement{inOrder(t, "a"), not(t, "c"), inOrder(t, "b"), inOrder(t, "d")}
		}, false},
		{"queue cleared after verification", func(t *testing.T) []*tt.Statement {
			return []*tt.Statement{not(t, "x"), inOrder(t, "b"), inOrder(t, "d")}
		}, false},
		{"trailing NOT checked against the rest", func(t *testing.T) []*tt.Statement {
			return []*tt.Statement{inOrder(t, "a"), not(t, "d")}
		}, true},
		{"trailing NOT passes", func(t *testing.T) []*tt.Statement {
			return []*tt.Statement{inOrder(t, "a"), not(t, "x")}
		}, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// partial, so only the NOT statements decide the outcome
			_, f := run(pass, true, tc.stmts(t)...)
			if tc.fail {
				require.NotNil(t, f)
				assert.Equal(t, tt.NotStatementViolated, f.Reason)
				return
			}
			assert.Nil(t, f)
		})
	}
}

func TestNotUsesBindingsBeforeMove(t *testing.T) {
	t.Parallel()

	// The NOT check runs before Y is bound by the match that triggers it.
	pass := newPass("i1 Def", "Use [i1]", "Use [i2]", "i2 Def")
	_, f := run(pass, false,
		inOrder(t, `<<X:i\d+>> Def`),
		not(t, "Use [<<X>>]"),
		inOrder(t, `<<Y:i\d+>> Def`),
	)
	require.NotNil(t, f)
	assert.Equal(t, tt.NotStatementViolated, f.Reason)
	assert.Equal(t, 1, f.LineIndex)
	assert.Equal(t, 1, f.Bindings.Len())
}

func TestEval(t *testing.T) {
	t.Parallel()

	pass := newPass("i1 IntConstant 2", "i2 IntConstant 3", "Return")
	s, f := run(pass, false,
		inOrder(t, `IntConstant <<A:\d+>>`),
		inOrder(t, `IntConstant <<B:\d+>>`),
		eval(t, "<<A>> + 1 == <<B>>"),
		inOrder(t, "Return"),
	)
	require.Nil(t, f)
	assert.Equal(t, 3, s.cursor)

	_, f = run(pass, false, inOrder(t, `IntConstant <<A:\d+>>`), eval(t, "<<A>> > 5"))
	require.NotNil(t, f)
	assert.Equal(t, tt.EvalFalse, f.Reason)
	assert.Equal(t, 1, f.LineIndex, "reported at the cursor")
}

func TestEvalUnboundVariable(t *testing.T) {
	t.Parallel()

	for _, pass := range []*tt.Pass{newPass(), newPass("x", "y")} {
		_, f := run(pass, false, eval(t, "<<x>> == 1"))
		require.NotNil(t, f)
		assert.Equal(t, tt.UnboundVariable, f.Reason)
		assert.ErrorIs(t, f, tt.ErrUnboundVariable)
	}
}

func TestVariableRedefined(t *testing.T) {
	t.Parallel()

	pass := newPass("i1 Def", "i2 Def")
	_, f := run(pass, false, inOrder(t, `<<X:i\d+>> Def`), inOrder(t, `<<X:i\d+>> Def`))
	require.NotNil(t, f)
	assert.Equal(t, tt.VariableRedefined, f.Reason)
	assert.Equal(t, 1, f.LineIndex)
}

func TestEndOfInput(t *testing.T) {
	t.Parallel()

	pass := newPass("a", "b", "c")

	s, f := run(pass, false, inOrder(t, "a"))
	require.NotNil(t, f, "statements must consume the whole pass")
	assert.Equal(t, tt.NoMatchFound, f.Reason)
	assert.Nil(t, f.Statement)
	assert.Equal(t, 3, f.LineIndex)
	assert.Equal(t, 1, s.cursor)

	s, f = run(pass, false, inOrder(t, "a"), dag(t, "c"), dag(t, "b"))
	require.Nil(t, f)
	assert.Equal(t, 3, s.cursor)

	s, f = run(newPass(), false)
	require.Nil(t, f)
	assert.Equal(t, 0, s.cursor)

	s, f = run(pass, true, inOrder(t, "a"))
	require.Nil(t, f)
	assert.Equal(t, 3, s.cursor, "partial mode moves the cursor to the end")

	_, f = run(pass, true, inOrder(t, "a"), not(t, "c"))
	require.NotNil(t, f)
	assert.Equal(t, tt.NotStatementViolated, f.Reason)
	assert.Equal(t, 2, f.LineIndex)
}

func TestMatchTestCaseRequiresWholePass(t *testing.T) {
	t.Parallel()

	pass := newPass("1: Add v0,v1", "2: Return")
	tc := &tt.TestCase{Statements: []*tt.Statement{inOrder(t, "Add")}}

	f := MatchTestCase(tc, pass, Options{})
	require.NotNil(t, f)
	assert.Equal(t, tt.NoMatchFound, f.Reason)
	assert.Equal(t, 2, f.LineIndex)
	assert.Equal(t, 102, f.Line)

	assert.Nil(t, MatchTestCase(tc, pass, Options{Partial: true}))
}

func TestCursorMonotonic(t *testing.T) {
	t.Parallel()

	pass := newPass("a", "b", "x", "y", "c", "d")
	stmts := []*tt.Statement{
		inOrder(t, "a"),
		not(t, "z"),
		dag(t, "y"),
		dag(t, "x"),
		nextLine(t, "c"),
		eval(t, "1 < 2"),
		inOrder(t, "d"),
	}

	s := newExecutionState(pass, pattern.Matcher{}, false)
	prev := s.cursor
	for _, st := range stmts {
		require.Nil(t, s.handle(st))
		assert.GreaterOrEqual(t, s.cursor, prev)
		assert.LessOrEqual(t, s.cursor, len(pass.Lines))
		prev = s.cursor
	}
	require.Nil(t, s.finish())
	assert.Equal(t, len(pass.Lines), s.cursor)
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	pass := newPass("i1 Add", "i2 Sub [i1]", "i3 Return [i2]")
	tc := &tt.TestCase{Statements: []*tt.Statement{
		inOrder(t, `<<A:i\d+>> Add`),
		not(t, "Sub"),
		inOrder(t, "Return [<<A>>]"),
	}}

	first := MatchTestCase(tc, pass, Options{})
	require.NotNil(t, first)
	for i := 0; i < 5; i++ {
		again := MatchTestCase(tc, pass, Options{})
		require.NotNil(t, again)
		if diff := cmp.Diff(first.Bindings.Map(), again.Bindings.Map()); diff != "" {
			t.Fatalf("bindings differ between runs (-first +again):\n%s", diff)
		}
		assert.Equal(t, first.Reason, again.Reason)
		assert.Equal(t, first.LineIndex, again.LineIndex)
		assert.Equal(t, first.Error(), again.Error())
	}
}

// containsMatcher matches a statement when the line contains its text.
type containsMatcher struct{}

func (containsMatcher) MatchLine(stmt *tt.Statement, line string, vars tt.Bindings) (tt.Bindings, bool, error) {
	return vars, strings.Contains(line, stmt.Text), nil
}

func (containsMatcher) Evaluate(stmt *tt.Statement, _ tt.Bindings) (bool, error) {
	return stmt.Text == "true", nil
}

func TestCustomMatcher(t *testing.T) {
	t.Parallel()

	pass := newPass("prefix-Add-suffix", "Return")
	tc := &tt.TestCase{Statements: []*tt.Statement{
		{Variant: tt.InOrder, Text: "Add"},
		{Variant: tt.Eval, Text: "true"},
		{Variant: tt.NextLine, Text: "Ret"},
	}}
	assert.Nil(t, MatchTestCase(tc, pass, Options{Matcher: containsMatcher{}}))

	tc.Statements[1] = &tt.Statement{Variant: tt.Eval, Text: "false"}
	f := MatchTestCase(tc, pass, Options{Matcher: containsMatcher{}})
	require.NotNil(t, f)
	assert.Equal(t, tt.EvalFalse, f.Reason)
	assert.Equal(t, 101, f.Line)
}
