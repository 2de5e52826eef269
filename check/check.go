package check

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/tcheck/internal"
	tt "github.com/gnolang/tcheck/internal/types"
	"github.com/gnolang/tcheck/scanner"
)

type CheckEngine interface {
	Run(filePath string) (*tt.FileReport, error)
	RunSource(name string, source []byte) (*tt.FileReport, error)
}

// Source is an in-memory checker source.
type Source struct {
	Name    string
	Content []byte
}

// New creates an engine for the dump at dumpPath using the configuration
// file at configurationPath.
func New(logger *zap.Logger, dumpPath, configurationPath string) (*internal.Engine, Config, error) {
	config, err := LoadConfig(configurationPath)
	if err != nil {
		return nil, config, err
	}
	engine, err := NewWithConfig(logger, dumpPath, config)
	return engine, config, err
}

// NewWithConfig creates an engine for the dump at dumpPath.
func NewWithConfig(logger *zap.Logger, dumpPath string, config Config) (*internal.Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return internal.NewEngine(logger, dumpPath, config.EngineConfig())
}

type processOptions struct {
	progress   io.Writer
	extensions []string
	workers    int
}

// Option configures multi-file processing.
type Option func(*processOptions)

// WithProgress draws a progress bar on w while a directory is processed.
func WithProgress(w io.Writer) Option {
	return func(o *processOptions) { o.progress = w }
}

// WithExtensions sets the extensions of the files picked up in directories.
func WithExtensions(exts ...string) Option {
	return func(o *processOptions) {
		if len(exts) > 0 {
			o.extensions = exts
		}
	}
}

// WithWorkers limits the number of files processed concurrently.
func WithWorkers(n int) Option {
	return func(o *processOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

func newProcessOptions(opts []Option) processOptions {
	o := processOptions{
		progress:   io.Discard,
		extensions: scanner.DefaultExtensions,
		workers:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine CheckEngine,
	sources []Source,
	processor func(CheckEngine, Source) (*tt.FileReport, error),
) ([]*tt.FileReport, error) {
	var (
		reports []*tt.FileReport
		errs    error
	)
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return reports, multierr.Append(errs, err)
		}
		report, err := processor(engine, source)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.String("source", source.Name), zap.Error(err))
			}
			errs = multierr.Append(errs, err)
			continue
		}
		reports = append(reports, report)
	}

	return reports, errs
}

// ProcessFiles processes every path in turn. An error in one file does not
// stop the others; all errors are returned combined.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine CheckEngine,
	paths []string,
	processor func(CheckEngine, string) (*tt.FileReport, error),
	opts ...Option,
) ([]*tt.FileReport, error) {
	var (
		reports []*tt.FileReport
		errs    error
	)
	for _, path := range paths {
		pathReports, err := ProcessPath(ctx, logger, engine, path, processor, opts...)
		reports = append(reports, pathReports...)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			errs = multierr.Append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}

	return reports, errs
}

// ProcessPath processes a file, or every source file below a directory.
// Directory entries are processed concurrently; reports keep the scan
// order. When ctx is cancelled the reports finished so far are returned
// with the context error.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine CheckEngine,
	path string,
	processor func(CheckEngine, string) (*tt.FileReport, error),
	opts ...Option,
) ([]*tt.FileReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		report, err := processor(engine, path)
		if err != nil {
			return []*tt.FileReport{}, err
		}
		return []*tt.FileReport{report}, nil
	}

	o := newProcessOptions(opts)
	files, err := scanner.New(path, o.extensions...).Scan()
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", path, err)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(o.progress),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	var (
		results = make([]*tt.FileReport, len(files))
		fileErr = make([]error, len(files))
		ctxErr  error
		g       errgroup.Group
	)
	g.SetLimit(o.workers)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		i, file := i, file
		g.Go(func() error {
			report, err := processor(engine, file.Path)
			if err != nil {
				if logger != nil {
					logger.Error("Error processing file", zap.String("file", file.Path), zap.Error(err))
				}
				fileErr[i] = err
			} else {
				results[i] = report
			}
			_ = bar.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	_ = bar.Finish()

	reports := make([]*tt.FileReport, 0, len(files))
	for _, r := range results {
		if r != nil {
			reports = append(reports, r)
		}
	}
	errs := multierr.Combine(fileErr...)
	if ctxErr != nil {
		errs = multierr.Append(errs, ctxErr)
	}
	return reports, errs
}

func ProcessFile(engine CheckEngine, filePath string) (*tt.FileReport, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine CheckEngine, source Source) (*tt.FileReport, error) {
	return engine.RunSource(source.Name, source.Content)
}
