package internal

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnolang/tcheck/internal/match"
	"github.com/gnolang/tcheck/internal/parser"
	tt "github.com/gnolang/tcheck/internal/types"
)

// Engine checks source files against one compiler dump.
type Engine struct {
	logger *zap.Logger
	opts   match.Options
	prefix string

	dumpPath string
	mu       sync.RWMutex
	dump     *tt.DumpFile

	cache *Cache

	// watch mode, guarded by watchMu
	watchMu    sync.Mutex
	watcher    *fsnotify.Watcher
	watchDirs  []string
	isWatching bool
	onReport   func(*tt.FileReport, error)
}

// EngineConfig holds the settings of an Engine.
type EngineConfig struct {
	// Prefix is the checker directive prefix. Empty means CHECK.
	Prefix  string
	Options match.Options
}

// NewEngine creates an engine for the dump file at dumpPath.
func NewEngine(logger *zap.Logger, dumpPath string, cfg EngineConfig) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:   logger,
		opts:     cfg.Options,
		prefix:   cfg.Prefix,
		dumpPath: dumpPath,
		cache:    NewCache(),
	}
	if err := e.ReloadDump(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineWithDump creates an engine for an already parsed dump.
func NewEngineWithDump(logger *zap.Logger, dump *tt.DumpFile, cfg EngineConfig) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:   logger,
		opts:     cfg.Options,
		prefix:   cfg.Prefix,
		dumpPath: dump.FileName,
		dump:     dump,
		cache:    NewCache(),
	}
}

// ReloadDump parses the dump file again.
func (e *Engine) ReloadDump() error {
	dump, err := parser.ParseC1File(e.dumpPath)
	if err != nil {
		return fmt.Errorf("error parsing dump: %w", err)
	}
	e.mu.Lock()
	e.dump = dump
	e.mu.Unlock()
	e.logger.Debug("Loaded dump",
		zap.String("file", e.dumpPath),
		zap.Int("passes", len(dump.Passes)))
	return nil
}

// Dump returns the current dump.
func (e *Engine) Dump() *tt.DumpFile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dump
}

// Run checks the test cases of a source file.
func (e *Engine) Run(filename string) (*tt.FileReport, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	checker, ok := e.cache.Get(filename, content)
	if !ok {
		checker, err = parser.ParseCheckerStream(filename, e.prefix, bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		e.cache.Set(filename, content, checker)
	}
	return e.check(checker), nil
}

// RunSource checks the test cases found in source. name is used in
// diagnostics only.
func (e *Engine) RunSource(name string, source []byte) (*tt.FileReport, error) {
	checker, err := parser.ParseCheckerStream(name, e.prefix, bytes.NewReader(source))
	if err != nil {
		return nil, err
	}
	return e.check(checker), nil
}

func (e *Engine) check(checker *tt.CheckerFile) *tt.FileReport {
	report := match.MatchFiles(checker, e.Dump(), e.opts)
	e.logger.Debug("Checked file",
		zap.String("file", checker.FileName),
		zap.Int("passed", report.Count(tt.Passed)),
		zap.Int("failed", report.Count(tt.Failed)),
		zap.Int("skipped", report.Count(tt.Skipped)))
	return report
}
