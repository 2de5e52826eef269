package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnolang/tcheck/internal/types"
)

// settleDelay groups bursts of writes to the same file into one run.
const settleDelay = 100 * time.Millisecond

// StartWatching re-runs checks when a watched file changes. A change to a
// source file re-checks that file; a change to the dump reloads it and
// re-checks every source checked so far. Results are passed to onReport.
func (e *Engine) StartWatching(dirs []string, isSource func(string) bool, onReport func(*tt.FileReport, error)) error {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if e.isWatching {
		return fmt.Errorf("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}

	e.watchDirs = append(dirs[:len(dirs):len(dirs)], filepath.Dir(e.dumpPath))
	for _, dir := range e.watchDirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			watcher.Close()
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	e.watcher = watcher
	e.onReport = onReport
	e.isWatching = true
	go e.watchLoop(watcher, isSource)
	return nil
}

// StopWatching stops the watcher. No report is delivered once it returns.
func (e *Engine) StopWatching() error {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if !e.isWatching {
		e.logger.Warn("not watching")
		return nil
	}

	e.isWatching = false
	e.onReport = nil
	watcher := e.watcher
	e.watcher = nil
	return watcher.Close()
}

func (e *Engine) watchLoop(watcher *fsnotify.Watcher, isSource func(string) bool) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			e.handleFileEvent(event, isSource)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(event fsnotify.Event, isSource func(string) bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	switch {
	case sameFile(event.Name, e.dumpPath):
		time.Sleep(settleDelay)
		if err := e.ReloadDump(); err != nil {
			e.logger.Error("Error reloading dump", zap.String("file", event.Name), zap.Error(err))
			return
		}
		e.logger.Info("Dump changed, re-checking sources", zap.String("file", event.Name))
		files := e.cache.Files()
		sort.Strings(files)
		for _, f := range files {
			e.rerun(f)
		}
	case isSource(event.Name):
		time.Sleep(settleDelay)
		e.rerun(event.Name)
	}
}

func (e *Engine) rerun(filename string) {
	report, err := e.Run(filename)
	if err != nil {
		e.logger.Error("Error checking file", zap.String("file", filename), zap.Error(err))
	} else {
		e.logger.Info("Checked file",
			zap.String("file", filename),
			zap.Int("failed", report.Count(tt.Failed)))
	}
	e.watchMu.Lock()
	onReport := e.onReport
	e.watchMu.Unlock()
	if onReport != nil {
		onReport(report, err)
	}
}

func sameFile(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}
