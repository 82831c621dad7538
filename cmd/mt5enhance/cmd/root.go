// Package cmd wires the analyzer pipeline into the mt5enhance CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/analysis"
	"github.com/csvk/MT5Enhance/internal/config"
	"github.com/csvk/MT5Enhance/internal/render"
)

var rootCmd = &cobra.Command{
	Use:   "mt5enhance",
	Short: "Portfolio analyzer for MT5 grid strategy backtests",
	Long: `mt5enhance reconstructs a portfolio-level equity curve from MT5 strategy
tester statements.

It classifies each statement's deals into open-to-flat sequences, selects a
non-overlapping subset per symbol and side, and replays the accepted deals
into balance and drawdown figures for the whole portfolio.

Typical workflow:
  mt5enhance list <strategy-folder>      create an output dir and report list
  mt5enhance analyze <output-dir>        run the full analysis
  mt5enhance pipeline <strategy-folder>  both of the above in one go`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	cfgPath string
	verbose bool

	cfg *config.Config
	logger *slog.Logger
)

// Execute runs the CLI. Errors are reported here once; cobra's own error
// echo is silenced.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a settings file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		cfg = &config.Config{}
		if cfgPath != "" {
			loaded, err := config.ReadFromFile(cfgPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		return nil
	}
}

// parseBase resolves the base capital: an explicit flag wins, then the
// config file, then the standard default.
func parseBase(flag string) (decimal.Decimal, error) {
	if flag != "" {
		d, err := decimal.NewFromString(flag)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("invalid base capital %q: %w", flag, err)
		}
		return d, nil
	}
	if !cfg.Analysis.BaseCapital.IsZero() {
		return cfg.Analysis.BaseCapital.Decimal, nil
	}
	return analysis.DefaultBase, nil
}

// parseDate resolves a date-range bound: flag, then config value.
func parseDate(flag string, fallback time.Time) (time.Time, error) {
	if flag == "" {
		return fallback, nil
	}
	t, err := time.Parse(analysis.DateLayout, flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", flag, err)
	}
	return t, nil
}

func analyzerOptions(outputDir, base string, all bool, start, end string) (analysis.Options, error) {
	opts := analysis.Options{
		OutputDir: outputDir,
		All:       all || cfg.Analysis.All,
		Workers:   cfg.Analysis.Workers,
		Progress:  !verbose,
	}

	var err error
	if opts.Base, err = parseBase(base); err != nil {
		return opts, err
	}
	if opts.Start, err = parseDate(start, cfg.Analysis.Start.Time); err != nil {
		return opts, err
	}
	if opts.End, err = parseDate(end, cfg.Analysis.End.Time); err != nil {
		return opts, err
	}
	return opts, nil
}

func rendererOptions(outputDir string, noCharts bool) render.Options {
	return render.Options{
		OutputDir:   outputDir,
		ChartWidth:  cfg.Charts.Width,
		ChartHeight: cfg.Charts.Height,
		NoCharts:    noCharts || cfg.Charts.Disabled,
	}
}
