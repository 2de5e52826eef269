package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tcheck/internal/parser"
)

var dumpLineNumbers bool

var dumpCmd = &cobra.Command{
	Use:   "dump <dump> <pass>",
	Short: "Print one pass of a c1visualizer dump",
	Long: `Prints the lines of the named pass as the checker sees them: trimmed and
without blank lines. The pass name is "<method> <pass>", as in CHECK-START.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDump(os.Stdout, args[0], args[1], dumpLineNumbers); err != nil {
			logger.Error("Error printing pass", zap.String("dump", args[0]), zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	dumpCmd.Flags().BoolVarP(&dumpLineNumbers, "line-numbers", "n", false, "Prefix each line with its dump line number")
}

func runDump(w io.Writer, dumpPath, passName string, lineNumbers bool) error {
	dump, err := parser.ParseC1File(dumpPath)
	if err != nil {
		return err
	}

	pass := dump.FindPass(passName)
	if pass == nil {
		return fmt.Errorf("pass %q not found in %s", passName, dumpPath)
	}

	for i, line := range pass.Lines {
		if lineNumbers {
			fmt.Fprintf(w, "%d: ", pass.AbsLine(i))
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
