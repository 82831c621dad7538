package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/analysis"
)

var ddCmd = &cobra.Command{
	Use:   "dd <set-file>",
	Short: "Estimate the theoretical grid drawdown of a parameter set",
	Long: `Dd builds the 20-level drawdown ladder for a grid parameter set: the lot
and adverse excursion at every level, where the loss crosses the $1,000
threshold, and how that threshold moves for starting lots 0.01 to 0.05.

With --dir pointing at an analyzed output directory, the observed entry
gaps of the report's trades drive the pip step scenarios and the prices/
FX tables convert quote-currency losses to USD.`,
	Args: cobra.ExactArgs(1),
	RunE: runDD,
}

var (
	ddDir    string
	ddDate   string
	ddLot    float64
	ddPipGap float64
)

func init() {
	rootCmd.AddCommand(ddCmd)

	ddCmd.Flags().StringVar(&ddDir, "dir", "", "analyzed output directory with trades and price tables")
	ddCmd.Flags().StringVar(&ddDate, "date", "", "target day (YYYY-MM-DD); default auto-detects the widest-gap day")
	ddCmd.Flags().Float64Var(&ddLot, "lot", 0, "starting lot override")
	ddCmd.Flags().Float64Var(&ddPipGap, "pipgap", 0, "target-day pip step override")
}

func runDD(cmd *cobra.Command, args []string) error {
	opts := analysis.GridOptions{
		SetPath:   args[0],
		OutputDir: ddDir,
		Lot:       ddLot,
		PipGap:    ddPipGap,
	}
	if ddDate != "" {
		day, err := time.Parse(analysis.DateLayout, ddDate)
		if err != nil {
			return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", ddDate, err)
		}
		opts.Date = day
	}

	est, err := analysis.EstimateGrid(opts, logger)
	if err != nil {
		return err
	}

	printEstimate(est)
	return nil
}

func printEstimate(e *analysis.GridEstimate) {
	est := e.Estimate
	day := e.TargetDay.Format(analysis.DateLayout)

	fmt.Printf("Set: %s\n", e.SetName)
	fmt.Printf("Symbol: %s (Point: %g)\n", e.Symbol, est.Point)
	if e.AutoDay {
		fmt.Printf("Auto-detected Max Gap Day: %s\n", day)
	} else {
		fmt.Printf("Target Day: %s\n", day)
	}
	fmt.Printf("USD Conversion Factor for %s: %.4f\n", day, est.FXFactor)

	rule := strings.Repeat("=", 96)
	fmt.Println()
	fmt.Println(rule)
	fmt.Printf("%-8s | %-10s | %-29s | %-29s\n", "", "", fmt.Sprintf("Day PipGap (%.1f)", est.DayStep), fmt.Sprintf("Mean PipGap (%.1f)", est.GlobalStep))
	fmt.Printf("%-8s | %-10s | %-12s | %-14s | %-12s | %-14s\n", "Level", "Lot", "Total Gap", "Total DD", "Total Gap", "Total DD")
	fmt.Println(strings.Repeat("-", 96))
	for _, lv := range est.Levels {
		if est.DayCross != nil && est.DayCross.Level == lv.Level {
			fmt.Printf("%-8s | %-10s | %-12.1f | %-14s | %-12s | %-14s (Day Threshold)\n",
				"---", "---", est.DayCross.Gap, "$1,000.00", "---", "---")
		}
		if est.MeanCross != nil && est.MeanCross.Level == lv.Level {
			fmt.Printf("%-8s | %-10s | %-12s | %-14s | %-12.1f | %-14s (Mean Threshold)\n",
				"---", "---", "---", "---", est.MeanCross.Gap, "$1,000.00")
		}
		fmt.Printf("L%-7d | %-10.2f | %-12.1f | $%-13.2f | %-12.1f | $%-13.2f\n",
			lv.Level, lv.Lot, lv.DayGap, lv.DayDD, lv.MeanGap, lv.MeanDD)
	}
	fmt.Println(rule)

	fmt.Printf("\n1k Drawdown Threshold vs. Starting Lot (Pips) - Based on %s:\n", day)
	header, gaps, lots, levels := "", "", "", ""
	for _, s := range est.Sensitivity {
		header += fmt.Sprintf("%-12.2f | ", s.Lot)
		if s.OK {
			gaps += fmt.Sprintf("%-12.1f | ", s.Gap)
			lots += fmt.Sprintf("%-12.2f | ", s.Lots)
			levels += fmt.Sprintf("%-12s | ", s.Level)
		} else {
			gaps += fmt.Sprintf("%-12s | ", "n/a")
			lots += fmt.Sprintf("%-12s | ", "n/a")
			levels += fmt.Sprintf("%-12s | ", "n/a")
		}
	}
	fmt.Printf("%-12s | %s\n", "Lot Size", header)
	fmt.Println(strings.Repeat("-", 15+len(header)))
	fmt.Printf("%-12s | %s\n", "1k Pip Gap", gaps)
	fmt.Printf("%-12s | %s\n", "Total Lots", lots)
	fmt.Printf("%-12s | %s\n", "Trade Level", levels)
	fmt.Println(rule)

	p := est.Params
	fmt.Println("Settings Used:")
	fmt.Printf(" - LotSize: %g, Exponent: %g, Max: %g\n", p.LotSize, p.LotSizeExponent, p.MaxLots)
	fmt.Printf(" - PipStep: %.2f, Exponent: %g, Max (Day/Mean): %.2f/%.2f (Input: %g)\n",
		est.DayStep, p.PipStepExponent, est.DayMax, est.GlobalMax, p.MaxPipStep)
	fmt.Printf(" - LiveDelay: %d\n", p.LiveDelay)
}
