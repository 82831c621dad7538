package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/analysis"
	"github.com/csvk/MT5Enhance/internal/render"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <output-dir>",
	Short: "Restate a run's results for fixed lot sizes",
	Long: `Simulate reads an analyzed run's summary.json and restates each
portfolio contributor's PnL and max drawdown for starting lots 0.01 to
0.05, scaling linearly by lot / initial lot. When the output directory
carries the report's .set file, the $1,000 drawdown threshold figures are
recomputed with the grid estimator.

The result is written to sim.html.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	run, err := analysis.ReadRun(filepath.Join(args[0], analysis.SummaryFile))
	if err != nil {
		return err
	}

	sim := analysis.Simulate(run, logger)
	if len(sim.Rows) == 0 {
		logger.Warn("run has no portfolio contributors to simulate")
	}

	r := render.New(rendererOptions(args[0], true), logger)
	if err := r.WriteSimulationHTML(sim); err != nil {
		return err
	}

	fmt.Printf("Simulation written: %s\n", filepath.Join(args[0], render.SimulationHTMLFile))
	return nil
}
