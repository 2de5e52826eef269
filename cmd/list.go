package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tcheck/internal/parser"
)

var listCmd = &cobra.Command{
	Use:   "list <dump>",
	Short: "List the passes of a c1visualizer dump",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runList(os.Stdout, args[0]); err != nil {
			logger.Error("Error listing passes", zap.String("dump", args[0]), zap.Error(err))
			os.Exit(1)
		}
	},
}

// runList prints one row per pass: its first dump line, its line count and
// its name.
func runList(w io.Writer, dumpPath string) error {
	dump, err := parser.ParseC1File(dumpPath)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tLINES\tPASS")
	for _, pass := range dump.Passes {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", pass.AbsLine(0), len(pass.Lines), pass.Name)
	}
	return tw.Flush()
}
