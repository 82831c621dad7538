package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/csvk/MT5Enhance/internal/analysis"
	"github.com/csvk/MT5Enhance/internal/render"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline <strategy-folder>",
	Short: "Run list, trades and analyze in one go",
	Long: `Pipeline chains the whole workflow in-process: prepare (or reuse) an
output directory, write the trade CSVs, then run the full analysis.

With --output-dir pointing at an existing directory that contains a
report list, the list step is skipped and that directory is reused, so a
hand-edited report list survives the rerun.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

var pipelineOutputDir string

func init() {
	rootCmd.AddCommand(pipelineCmd)

	pipelineCmd.Flags().StringVar(&pipelineOutputDir, "output-dir", "", "existing output directory to reuse")
	pipelineCmd.Flags().StringVar(&analyzeBase, "base", "", "base capital (default 100000)")
	pipelineCmd.Flags().StringVar(&analyzeStart, "start", "", "analysis window start (YYYY-MM-DD)")
	pipelineCmd.Flags().StringVar(&analyzeEnd, "end", "", "analysis window end, exclusive (YYYY-MM-DD)")
	pipelineCmd.Flags().BoolVar(&analyzeAll, "all", false, "also process reports marked Include=0")
	pipelineCmd.Flags().BoolVar(&analyzeNoCharts, "no-charts", false, "skip chart rendering")
	pipelineCmd.Flags().StringVar(&analyzeDB, "db", "", "run history database path (empty skips recording)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	outputDir := pipelineOutputDir
	if outputDir != "" {
		if _, err := os.Stat(filepath.Join(outputDir, analysis.ManifestFile)); err != nil {
			logger.Warn("output dir has no report list, creating a new one", "dir", outputDir)
			outputDir = ""
		}
	}

	if outputDir == "" {
		logger.Info("step 1/3: preparing output directory")
		res, err := analysis.List(args[0], time.Now(), logger)
		if err != nil {
			return err
		}
		outputDir = res.OutputDir
	} else {
		logger.Info("step 1/3: reusing output directory", "dir", outputDir)
	}

	logger.Info("step 2/3: writing trade CSVs")
	opts, err := analyzerOptions(outputDir, analyzeBase, analyzeAll, "", "")
	if err != nil {
		return err
	}
	batch, err := analysis.New(opts, logger).Classify(cmd.Context())
	if err != nil {
		return err
	}
	r := render.New(rendererOptions(outputDir, true), logger)
	if err := r.WriteTrades(batch, opts.Base); err != nil {
		return err
	}

	logger.Info("step 3/3: running analysis")
	_, err = analyzeDir(cmd, outputDir)
	return err
}
