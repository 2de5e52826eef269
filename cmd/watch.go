package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tcheck/check"
	"github.com/gnolang/tcheck/formatter"
	tt "github.com/gnolang/tcheck/internal/types"
	"github.com/gnolang/tcheck/scanner"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dump> <paths...>",
	Short: "Re-run checks when the dump or a source file changes",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		config, err := loadConfig(cmd)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}

		opts := formatter.Options{Context: contextLines, PrintDump: printDump}
		if err := runWatch(ctx, logger, os.Stdout, args[0], args[1:], config, opts); err != nil {
			logger.Error("Error watching files", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&checkArch, "arch", "", "Target architecture (ARM, ARM64, MIPS, MIPS64, X86, X86_64, RISCV64)")
	watchCmd.Flags().BoolVar(&checkDebuggable, "debuggable", false, "Run the test cases written for debuggable compilation")
	watchCmd.Flags().StringVar(&checkPrefix, "prefix", "", "Checker directive prefix (default CHECK)")
	watchCmd.Flags().BoolVar(&checkPartial, "partial", false, "Accept test cases whose statements stop before the end of the pass")
	watchCmd.Flags().BoolVar(&printDump, "print-dump", false, "Print the whole pass for each failure")
	watchCmd.Flags().IntVar(&contextLines, "context", formatter.DefaultContext, "Number of dump lines shown around a failure")
}

// runWatch checks paths once, then re-checks on every change until ctx is
// done.
func runWatch(
	ctx context.Context,
	logger *zap.Logger,
	stdout io.Writer,
	dumpPath string,
	paths []string,
	config check.Config,
	opts formatter.Options,
) error {
	engine, err := check.NewWithConfig(logger, dumpPath, config)
	if err != nil {
		return fmt.Errorf("error initializing check engine: %w", err)
	}

	reports, err := check.ProcessFiles(ctx, logger, engine, paths, check.ProcessFile,
		check.WithExtensions(config.Extensions...))
	if err != nil {
		logger.Warn("Some files could not be checked", zap.Error(err))
	}
	printReports(stdout, reports, opts)

	dirs := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			path = filepath.Dir(path)
		}
		dirs = append(dirs, path)
	}

	isSource := scanner.New("", config.Extensions...).Matches
	onReport := func(report *tt.FileReport, err error) {
		// errors are logged by the engine
		if err != nil {
			return
		}
		printReports(stdout, []*tt.FileReport{report}, opts)
	}
	if err := engine.StartWatching(dirs, isSource, onReport); err != nil {
		return err
	}
	logger.Info("Watching for changes", zap.Strings("dirs", dirs), zap.String("dump", dumpPath))

	<-ctx.Done()
	return engine.StopWatching()
}
