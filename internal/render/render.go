// Package render writes an analysis run's artifacts into the output
// directory: the per-report and per-symbol trade CSVs, the balance and
// drawdown charts, and the HTML reports.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/csvk/MT5Enhance/internal/analysis"
)

// Artifact file names inside an output directory.
const (
	AnalysisHTMLFile   = "Full_Analysis.html"
	SimulationHTMLFile = "sim.html"
	ComparisonHTMLFile = "compare_report.html"
	OverviewChartFile  = "Portfolio_Overview.png"
)

// ReportChartFile names the per-report chart for a report basename.
func ReportChartFile(base string) string {
	return "Chart_" + base + ".png"
}

// Options configure a Renderer. Chart geometry is per panel; the stacked
// charts are twice ChartHeight tall.
type Options struct {
	OutputDir   string
	ChartWidth  int
	ChartHeight int
	NoCharts    bool
}

// Renderer writes artifacts for one output directory. Charts written during
// the run are remembered so the HTML only references images that exist.
type Renderer struct {
	opts   Options
	log    *slog.Logger
	pr     *message.Printer
	charts map[string]bool
}

func New(opts Options, log *slog.Logger) *Renderer {
	if opts.ChartWidth <= 0 {
		opts.ChartWidth = 1000
	}
	if opts.ChartHeight <= 0 {
		opts.ChartHeight = 320
	}
	return &Renderer{
		opts:   opts,
		log:    log,
		pr:     message.NewPrinter(language.English),
		charts: map[string]bool{},
	}
}

// Render writes the full artifact set for a completed batch: trade CSVs,
// charts and the analysis HTML.
func (r *Renderer) Render(out *analysis.Outcome) error {
	if err := r.WriteTrades(&out.Batch, out.Run.BaseCapital); err != nil {
		return err
	}
	if err := r.WriteCharts(out); err != nil {
		return err
	}
	return r.WriteAnalysisHTML(out.Run)
}

// refreshDir recreates a subdirectory of the output dir from scratch, so
// artifacts of earlier runs never linger.
func (r *Renderer) refreshDir(name string) (string, error) {
	dir := filepath.Join(r.opts.OutputDir, name)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// money renders a decimal with thousand separators and two decimals.
func (r *Renderer) money(v decimal.Decimal) string {
	return r.pr.Sprintf("%.2f", v.InexactFloat64())
}

// plain renders a decimal with two decimals and no separators, the format
// the table cells use.
func plain(v decimal.Decimal) string {
	return v.StringFixed(2)
}
