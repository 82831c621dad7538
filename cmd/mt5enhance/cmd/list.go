package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/analysis"
)

var listCmd = &cobra.Command{
	Use:   "list <strategy-folder>",
	Short: "Prepare an output directory for a strategy folder",
	Long: `List scans <strategy-folder>/HTML Reports for statement files and creates
a timestamped output directory under <strategy-folder>/analysis containing
the report list (all reports included) and a copy of the folder's .set
files.

The created directory path is printed on stdout so it can feed the other
commands.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	res, err := analysis.List(args[0], time.Now(), logger)
	if err != nil {
		return err
	}

	fmt.Println(res.OutputDir)
	return nil
}
