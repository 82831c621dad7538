package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/analysis"
	"github.com/csvk/MT5Enhance/internal/mt5"
)

var filterCmd = &cobra.Command{
	Use:   "filter <output-dir>",
	Short: "Keep only the top performers in the report list",
	Long: `Filter ranks an analyzed run's included reports by their selected PnL
and writes report_list.filtered.csv with only the top N still included.
The original report list is left untouched; rename the filtered file over
it to apply.`,
	Args: cobra.ExactArgs(1),
	RunE: runFilter,
}

var filterTop int

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().IntVarP(&filterTop, "top", "n", 10, "number of reports to keep included")
}

func runFilter(cmd *cobra.Command, args []string) error {
	run, err := analysis.ReadRun(filepath.Join(args[0], analysis.SummaryFile))
	if err != nil {
		return err
	}
	entries, err := mt5.ReadManifest(filepath.Join(args[0], analysis.ManifestFile))
	if err != nil {
		return err
	}

	filtered := analysis.Filter(run, entries, filterTop)
	kept := 0
	for _, e := range filtered {
		if e.Include {
			kept++
		}
	}

	path := filepath.Join(args[0], analysis.FilteredManifestFile)
	if err := mt5.WriteManifest(path, filtered); err != nil {
		return err
	}

	fmt.Printf("Kept %d of %d reports: %s\n", kept, len(filtered), path)
	return nil
}
