package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/analysis"
	"github.com/csvk/MT5Enhance/internal/journal"
	"github.com/csvk/MT5Enhance/internal/render"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <output-dir>",
	Short: "Run the full portfolio analysis",
	Long: `Analyze runs the whole pipeline over an output directory prepared by
"list": classification, selection, portfolio reconstruction, trade CSVs,
charts and the Full_Analysis.html report, plus summary.json for the
downstream commands.

Each run is also appended to the run history database (see "history").`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeBase     string
	analyzeStart    string
	analyzeEnd      string
	analyzeAll      bool
	analyzeNoCharts bool
	analyzeDB       string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeBase, "base", "", "base capital (default 100000)")
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "analysis window start (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", "", "analysis window end, exclusive (YYYY-MM-DD)")
	analyzeCmd.Flags().BoolVar(&analyzeAll, "all", false, "also process reports marked Include=0")
	analyzeCmd.Flags().BoolVar(&analyzeNoCharts, "no-charts", false, "skip chart rendering")
	analyzeCmd.Flags().StringVar(&analyzeDB, "db", "", "run history database path (empty skips recording)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	_, err := analyzeDir(cmd, args[0])
	return err
}

// analyzeDir runs a full analysis over one output directory; pipeline
// reuses it after list and trades.
func analyzeDir(cmd *cobra.Command, outputDir string) (*analysis.Run, error) {
	opts, err := analyzerOptions(outputDir, analyzeBase, analyzeAll, analyzeStart, analyzeEnd)
	if err != nil {
		return nil, err
	}

	out, err := analysis.New(opts, logger).Analyze(cmd.Context())
	if err != nil {
		return nil, err
	}

	r := render.New(rendererOptions(outputDir, analyzeNoCharts), logger)
	if err := r.Render(out); err != nil {
		return nil, err
	}

	summaryPath := filepath.Join(outputDir, analysis.SummaryFile)
	if err := out.Run.WriteToFile(summaryPath); err != nil {
		return nil, err
	}

	if err := recordRun(out.Run); err != nil {
		return nil, err
	}

	fmt.Printf("Analysis complete: %s\n", filepath.Join(outputDir, render.AnalysisHTMLFile))
	return out.Run, nil
}

// recordRun appends the run to the history database. History is optional;
// with no path configured the run is simply not recorded.
func recordRun(run *analysis.Run) error {
	path := analyzeDB
	if path == "" {
		path = cfg.Journal.Path
	}
	if path == "" {
		logger.Debug("no history database configured, run not recorded")
		return nil
	}

	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	id, err := j.Record(run, time.Now())
	if err != nil {
		return err
	}
	logger.Info("run recorded", "db", path, "id", id)
	return nil
}
