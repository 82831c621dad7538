package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/analysis"
	"github.com/csvk/MT5Enhance/internal/render"
)

var compareCmd = &cobra.Command{
	Use:   "compare <output-dir>",
	Short: "Compare strategy variants of a run",
	Long: `Compare reads an analyzed run's summary.json and groups its reports into
strategy families by a trailing variant token in the name (_ld1, _t18
style; a name without one is the "Original"). Families with at least two
variants are rendered side by side into compare_report.html.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	run, err := analysis.ReadRun(filepath.Join(args[0], analysis.SummaryFile))
	if err != nil {
		return err
	}

	c := analysis.Compare(run)
	if len(c.Families) == 0 {
		return fmt.Errorf("no strategy variants detected among %d reports", len(run.Reports))
	}

	r := render.New(rendererOptions(args[0], true), logger)
	if err := r.WriteComparisonHTML(c); err != nil {
		return err
	}

	fmt.Printf("Comparison written: %s\n", filepath.Join(args[0], render.ComparisonHTMLFile))
	return nil
}
