package internal

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/gnolang/tcheck/internal/parser"
	tt "github.com/gnolang/tcheck/internal/types"
)

// createTempDir creates a temporary directory and returns its path.
// It also registers a cleanup function to remove the directory after the test.
func createTempDir(t testing.TB, prefix string) string {
	tempDir, err := os.MkdirTemp("", prefix)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })
	return tempDir
}

func writeFile(t testing.TB, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const testDump = `begin_compilation
  method "int Main.sum()"
end_compilation
begin_cfg
  name "builder"
  i1 IntConstant 1
  i2 IntConstant 2
  i3 Add [i1,i2]
  Return [i3]
end_cfg
begin_cfg
  name "constant_folding"
  i4 IntConstant 3
  Return [i4]
end_cfg
`

const testSource = `class Main {
  /// CHECK-START: int Main.sum() builder
  /// CHECK-DAG: <<A:i\d+>> IntConstant 1
  /// CHECK-DAG: <<B:i\d+>> IntConstant 2
  /// CHECK:     <<S:i\d+>> Add [<<A>>,<<B>>]
  /// CHECK-NEXT:           Return [<<S>>]

  /// CHECK-START: int Main.sum() constant_folding
  /// CHECK-NOT:            Add
  /// CHECK:                Return
}
`

func TestNewEngine(t *testing.T) {
	t.Parallel()

	tempDir := createTempDir(t, "engine_test")
	dumpPath := filepath.Join(tempDir, "dump.cfg")
	writeFile(t, dumpPath, testDump)

	engine, err := NewEngine(zaptest.NewLogger(t), dumpPath, EngineConfig{})
	require.NoError(t, err)
	require.NotNil(t, engine.Dump())
	assert.Equal(t, []string{"int Main.sum() builder", "int Main.sum() constant_folding"}, engine.Dump().PassNames())

	_, err = NewEngine(nil, filepath.Join(tempDir, "missing.cfg"), EngineConfig{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	badDump := filepath.Join(tempDir, "bad.cfg")
	writeFile(t, badDump, "garbage\n")
	_, err = NewEngine(nil, badDump, EngineConfig{})
	var perr *parser.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestEngineRun(t *testing.T) {
	t.Parallel()

	tempDir := createTempDir(t, "engine_run")
	dumpPath := filepath.Join(tempDir, "dump.cfg")
	srcPath := filepath.Join(tempDir, "Main.java")
	writeFile(t, dumpPath, testDump)
	writeFile(t, srcPath, testSource)

	engine, err := NewEngine(zaptest.NewLogger(t), dumpPath, EngineConfig{})
	require.NoError(t, err)

	report, err := engine.Run(srcPath)
	require.NoError(t, err)
	assert.Equal(t, srcPath, report.FileName)
	assert.Equal(t, dumpPath, report.DumpFile)
	require.Len(t, report.Results, 2)
	assert.Equal(t, tt.Passed, report.Results[0].Status)
	assert.Equal(t, tt.Passed, report.Results[1].Status)
	assert.Equal(t, 1, engine.cache.Len())

	// Unchanged content is served from the cache.
	again, err := engine.Run(srcPath)
	require.NoError(t, err)
	assert.Same(t, report.Results[0].TestCase, again.Results[0].TestCase)

	writeFile(t, srcPath, "/// CHECK-START: int Main.sum() builder\n/// CHECK: Sub\n")
	report, err = engine.Run(srcPath)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, tt.Failed, report.Results[0].Status)
	assert.Equal(t, tt.NoMatchFound, report.Results[0].Failure.Reason)
	assert.Equal(t, 6, report.Results[0].Failure.Line)

	_, err = engine.Run(filepath.Join(tempDir, "Missing.java"))
	assert.Error(t, err)
}

func TestEngineRunSource(t *testing.T) {
	t.Parallel()

	dump, err := parser.ParseC1Stream("dump.cfg", strings.NewReader(testDump))
	require.NoError(t, err)

	engine := NewEngineWithDump(nil, dump, EngineConfig{
		Prefix: "TEST",
	})

	report, err := engine.RunSource("Main.java", []byte(`
// TEST-START: int Main.sum() constant_folding
// TEST: IntConstant
// TEST-NOT: Add
// TEST-START: int Main.sum() builder
// TEST: IntConstant 2
`))
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, tt.Failed, report.Results[0].Status, "statements must consume the whole pass")
	assert.Equal(t, tt.Failed, report.Results[1].Status)

	_, err = engine.RunSource("Bad.java", []byte("// TEST: orphan\n"))
	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Bad.java", perr.File)
}

func TestEngineReloadDump(t *testing.T) {
	t.Parallel()

	tempDir := createTempDir(t, "engine_reload")
	dumpPath := filepath.Join(tempDir, "dump.cfg")
	writeFile(t, dumpPath, testDump)

	engine, err := NewEngine(nil, dumpPath, EngineConfig{})
	require.NoError(t, err)

	writeFile(t, dumpPath, "begin_compilation\nmethod \"void f()\"\nend_compilation\nbegin_cfg\nname \"p\"\nx\nend_cfg\n")
	require.NoError(t, engine.ReloadDump())
	assert.Equal(t, []string{"void f() p"}, engine.Dump().PassNames())
}

func TestEngineWatch(t *testing.T) {
	t.Parallel()

	tempDir := createTempDir(t, "engine_watch")
	dumpPath := filepath.Join(tempDir, "dump.cfg")
	srcPath := filepath.Join(tempDir, "Main.java")
	writeFile(t, dumpPath, testDump)
	writeFile(t, srcPath, testSource)

	engine, err := NewEngine(zap.NewNop(), dumpPath, EngineConfig{})
	require.NoError(t, err)

	reports := make(chan *tt.FileReport, 16)
	isSource := func(path string) bool { return filepath.Ext(path) == ".java" }
	require.NoError(t, engine.StartWatching([]string{tempDir}, isSource, func(r *tt.FileReport, err error) {
		if err != nil {
			return
		}
		select {
		case reports <- r:
		default:
		}
	}))
	t.Cleanup(func() { _ = engine.StopWatching() })

	assert.Error(t, engine.StartWatching([]string{tempDir}, isSource, nil), "already watching")

	writeFile(t, srcPath, "/// CHECK-START: int Main.sum() builder\n/// CHECK: Sub\n")

	select {
	case r := <-reports:
		assert.Equal(t, srcPath, r.FileName)
		assert.False(t, r.OK())
	case <-time.After(5 * time.Second):
		t.Fatal("no report after the source changed")
	}
}

func TestEngineWatchConcurrentStartStop(t *testing.T) {
	t.Parallel()

	tempDir := createTempDir(t, "engine_watch_race")
	dumpPath := filepath.Join(tempDir, "dump.cfg")
	writeFile(t, dumpPath, testDump)

	engine, err := NewEngine(zap.NewNop(), dumpPath, EngineConfig{})
	require.NoError(t, err)

	isSource := func(path string) bool { return filepath.Ext(path) == ".java" }
	onReport := func(*tt.FileReport, error) {}

	var (
		wg      sync.WaitGroup
		started atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if engine.StartWatching([]string{tempDir}, isSource, onReport) == nil {
				started.Add(1)
			}
			assert.NoError(t, engine.StopWatching())
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, started.Load(), int32(1))
	assert.False(t, engine.isWatching)
	assert.Nil(t, engine.watcher)
	assert.NoError(t, engine.StopWatching(), "stopping twice is a no-op")

	require.NoError(t, engine.StartWatching([]string{tempDir}, isSource, onReport))
	require.NoError(t, engine.StopWatching())
}
