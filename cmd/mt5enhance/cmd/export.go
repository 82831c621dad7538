package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/analysis"
)

var exportCmd = &cobra.Command{
	Use:   "export <output-dir>",
	Short: "Bundle the portfolio's reports for deployment",
	Long: `Export copies the statement and .set file of every report that made it
into the portfolio to <output-dir>/export, renumbering the Magic values
of the .set files sequentially so the exported strategies never collide
on one account.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var exportMagicStart int

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().IntVar(&exportMagicStart, "magic-start", 1001, "first magic number to assign")
}

func runExport(cmd *cobra.Command, args []string) error {
	run, err := analysis.ReadRun(filepath.Join(args[0], analysis.SummaryFile))
	if err != nil {
		return err
	}

	res, err := analysis.Export(run, exportMagicStart, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d reports and %d set files (%d magics assigned): %s\n",
		res.Reports, res.Sets, res.Assigned, res.Dir)
	return nil
}
