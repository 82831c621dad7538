package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded analysis runs",
	Long: `History lists the runs recorded in the history database, newest first.
Analyze appends a row per run when a database is configured (--db or the
journal.path config setting), so results over the same corpus can be
compared over time without keeping every output directory.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyDB string

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyDB, "db", "", "run history database path")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := historyDB
	if path == "" {
		path = cfg.Journal.Path
	}
	if path == "" {
		return fmt.Errorf("no history database configured (pass --db or set journal.path)")
	}

	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RECORDED\tPERIOD\tREPORTS\tPROFIT\tMAX DD\tCONS DD\tOUTPUT DIR")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s..%s\t%d/%d\t%s\t%s\t%s (%s)\t%s\n",
			e.RecordedAt.Local().Format("2006-01-02 15:04"),
			e.Start, e.End,
			e.IncludedReports, e.TotalReports,
			e.TotalProfit.StringFixed(2),
			e.MaxDrawdownAbs.StringFixed(2),
			e.ConservativeDD.StringFixed(2), e.ConservativeDay,
			e.OutputDir)
	}
	return w.Flush()
}
