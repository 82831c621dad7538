package cmd

import (
	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/analysis"
	"github.com/csvk/MT5Enhance/internal/render"
)

var tradesCmd = &cobra.Command{
	Use:   "trades <output-dir>",
	Short: "Classify deals and write the trade CSVs",
	Long: `Trades runs classification and selection only: every statement in the
report list is parsed, its deals are grouped into sequences, and the
portfolio's non-overlapping subset is selected.

The Trades/ directory is refreshed with one all_trades CSV per report and
one selected_trades CSV per symbol. No charts or HTML are produced.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrades,
}

var (
	tradesBase string
	tradesAll  bool
)

func init() {
	rootCmd.AddCommand(tradesCmd)

	tradesCmd.Flags().StringVar(&tradesBase, "base", "", "base capital for the selected-CSV balance replay (default 100000)")
	tradesCmd.Flags().BoolVar(&tradesAll, "all", false, "also process reports marked Include=0")
}

func runTrades(cmd *cobra.Command, args []string) error {
	opts, err := analyzerOptions(args[0], tradesBase, tradesAll, "", "")
	if err != nil {
		return err
	}

	batch, err := analysis.New(opts, logger).Classify(cmd.Context())
	if err != nil {
		return err
	}

	r := render.New(rendererOptions(args[0], true), logger)
	return r.WriteTrades(batch, opts.Base)
}
