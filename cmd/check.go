package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gnolang/tcheck/check"
	"github.com/gnolang/tcheck/formatter"
	tt "github.com/gnolang/tcheck/internal/types"
)

// variable for flags
var (
	checkArch       string
	checkDebuggable bool
	checkPrefix     string
	checkPartial    bool
	checkParallel   bool
	checkWorkers    int
	jsonOutput      bool
	outPath         string
	printDump       bool
	contextLines    int
)

var checkCmd = &cobra.Command{
	Use:   "check <dump> <paths...>",
	Short: "Check source files against a c1visualizer dump",
	Long: `Runs every test case found in the given source files against the passes
of the dump. Directories are searched for source files recursively.
Example) tcheck check art.cfg src/`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		config, err := loadConfig(cmd)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}

		out := outputOptions{
			json:      jsonOutput,
			path:      outPath,
			progress:  os.Stderr,
			workers:   checkWorkers,
			formatter: formatter.Options{Context: contextLines, PrintDump: printDump},
		}
		ok, err := runCheck(ctx, logger, os.Stdout, args[0], args[1:], config, out)
		if err != nil {
			logger.Error("Error running checks", zap.Error(err))
			os.Exit(1)
		}
		if !ok {
			os.Exit(1)
		}
	},
}

func init() {
	addMatchFlags(checkCmd)
	addOutputFlags(checkCmd)
}

// addMatchFlags registers the flags selecting and running test cases.
func addMatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&checkArch, "arch", "", "Target architecture (ARM, ARM64, MIPS, MIPS64, X86, X86_64, RISCV64)")
	cmd.Flags().BoolVar(&checkDebuggable, "debuggable", false, "Run the test cases written for debuggable compilation")
	cmd.Flags().StringVar(&checkPrefix, "prefix", "", "Checker directive prefix (default CHECK)")
	cmd.Flags().BoolVar(&checkPartial, "partial", false, "Accept test cases whose statements stop before the end of the pass")
	cmd.Flags().BoolVar(&checkParallel, "parallel", false, "Run the test cases of a file concurrently")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&checkWorkers, "workers", 0, "Number of files checked concurrently (default number of CPUs)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	cmd.Flags().BoolVar(&printDump, "print-dump", false, "Print the whole pass for each failure")
	cmd.Flags().IntVar(&contextLines, "context", formatter.DefaultContext, "Number of dump lines shown around a failure")
}

// loadConfig reads the configuration file and applies the flags set on cmd.
func loadConfig(cmd *cobra.Command) (check.Config, error) {
	path := cfgFile
	if path == "" {
		path = check.DefaultConfigFile
	}
	config, err := check.LoadConfig(path)
	if err != nil {
		return config, err
	}

	flags := cmd.Flags()
	if flags.Changed("arch") {
		config.Arch = checkArch
	}
	if flags.Changed("debuggable") {
		config.Debuggable = checkDebuggable
	}
	if flags.Changed("prefix") {
		config.Prefix = checkPrefix
	}
	if flags.Changed("partial") {
		config.Partial = checkPartial
	}
	if flags.Changed("parallel") {
		config.Parallel = checkParallel
	}
	return config, config.Validate()
}

type outputOptions struct {
	json      bool
	path      string
	progress  io.Writer
	workers   int
	formatter formatter.Options
}

// runCheck checks paths against the dump and prints the reports to stdout.
// It returns false when a test case failed or a file could not be checked.
func runCheck(
	ctx context.Context,
	logger *zap.Logger,
	stdout io.Writer,
	dumpPath string,
	paths []string,
	config check.Config,
	out outputOptions,
) (bool, error) {
	engine, err := check.NewWithConfig(logger, dumpPath, config)
	if err != nil {
		return false, fmt.Errorf("error initializing check engine: %w", err)
	}

	opts := []check.Option{
		check.WithExtensions(config.Extensions...),
		check.WithWorkers(out.workers),
	}
	if !out.json && out.progress != nil {
		opts = append(opts, check.WithProgress(out.progress))
	}

	reports, err := check.ProcessFiles(ctx, logger, engine, paths, check.ProcessFile, opts...)
	errs := multierr.Errors(err)
	summary := formatter.Summarize(reports, len(errs))

	if out.json {
		if err := writeJSON(out.path, stdout, reports, len(errs)); err != nil {
			return false, err
		}
		return summary.OK(), nil
	}

	printReports(stdout, reports, out.formatter)
	fmt.Fprintln(stdout, summary)
	return summary.OK(), nil
}

func printReports(w io.Writer, reports []*tt.FileReport, opts formatter.Options) {
	for _, report := range reports {
		fmt.Fprintln(w, formatter.FileStatus(report))
		if !report.OK() {
			fmt.Fprint(w, formatter.GenerateFormattedReport(report, opts))
		}
	}
}

func writeJSON(path string, stdout io.Writer, reports []*tt.FileReport, errors int) error {
	if path == "" {
		return formatter.WriteJSON(stdout, reports, errors)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating JSON output file: %w", err)
	}
	defer f.Close()

	if err := formatter.WriteJSON(f, reports, errors); err != nil {
		return fmt.Errorf("error writing JSON output file: %w", err)
	}
	return nil
}
