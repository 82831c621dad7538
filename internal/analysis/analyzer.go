// Package analysis orchestrates report batches: it parses every statement
// listed in the manifest, classifies deals into sequences, selects a
// non-overlapping portfolio and aggregates the figures the reports are
// rendered from.
package analysis

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/csvk/MT5Enhance/internal/mt5"
	"github.com/csvk/MT5Enhance/internal/portfolio"
	"github.com/csvk/MT5Enhance/internal/selection"
	"github.com/csvk/MT5Enhance/internal/sequence"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Output directory layout.
const (
	TradesDir = "Trades"
	ChartsDir = "charts"
	SetsDir   = "sets"
	PricesDir = "prices"
)

// DefaultBase is the base capital assumed when none is configured.
var DefaultBase = decimal.NewFromInt(100000)

// Options configure one analysis batch. Start and End bound the portfolio
// window as [Start, End); zero values derive the missing bound from the
// accepted deals. All additionally processes reports marked Include=0 so
// their diagnostics appear alongside the included ones; they still never
// reach selection.
type Options struct {
	OutputDir string
	Base      decimal.Decimal
	Start     time.Time
	End       time.Time
	All       bool
	Workers   int
	Progress  bool
}

// Analyzer runs analysis batches over one output directory.
type Analyzer struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options, log *slog.Logger) *Analyzer {
	if opts.Base.IsZero() {
		opts.Base = DefaultBase
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Analyzer{opts: opts, log: log}
}

// ReportData is one manifest entry's working set: the annotated rows and
// sequences the classifier produced, plus what selection attached.
type ReportData struct {
	Entry     mt5.ManifestEntry
	Name      string
	Base      string
	Processed bool
	ParseErr  error
	Symbol    string

	Rows       []mt5.TradeRow
	Sequences  []sequence.Sequence
	Incomplete []sequence.Sequence

	BuyEntries  int
	SellEntries int

	// Accepted holds the deals of this report's sequences that survived
	// selection. OwnCurve is the report's standalone balance curve over its
	// own data range, filled during Analyze.
	Accepted []mt5.Deal
	OwnCurve *portfolio.Series
}

// Batch is the classification stage's output: per-report data in manifest
// order plus the portfolio selection over the included reports.
type Batch struct {
	Reports   []*ReportData
	Selection selection.Selection
}

// Outcome is a completed batch: the serializable Run plus the reconstructed
// curves the chart writers draw from.
type Outcome struct {
	Batch
	Run    *Run
	Start  time.Time
	End    time.Time
	Pooled *portfolio.Series
}

// Load parses and classifies every manifest entry. Reports are processed
// concurrently, each against a fresh id counter; ids are then renumbered in
// manifest order so the outcome matches sequential execution. An unreadable
// report is recorded on its entry and the batch continues.
func (a *Analyzer) Load(ctx context.Context) ([]*ReportData, error) {
	entries, err := mt5.ReadManifest(filepath.Join(a.opts.OutputDir, ManifestFile))
	if err != nil {
		return nil, err
	}

	reports := make([]*ReportData, len(entries))
	results := make([]sequence.Result, len(entries))

	bar := progressbar.DefaultSilent(int64(len(entries)))
	if a.opts.Progress {
		bar = newProgressBar(len(entries))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, e := range entries {
		name := filepath.Base(e.Path)
		d := &ReportData{
			Entry:     e,
			Name:      name,
			Base:      strings.TrimSuffix(name, filepath.Ext(name)),
			Processed: e.Include || a.opts.All,
		}
		reports[i] = d

		if !d.Processed {
			bar.Add(1)
			continue
		}

		g.Go(func() error {
			defer bar.Add(1)
			if err := ctx.Err(); err != nil {
				return err
			}

			stmt, err := mt5.ReadStatement(d.Entry.Path, a.log)
			if err != nil {
				a.log.Warn("skipping unreadable report", "path", d.Entry.Path, "error", err)
				d.ParseErr = err
				return nil
			}

			d.Symbol = stmt.Symbol
			results[i] = sequence.Classify(stmt.Deals, sequence.NewCounter())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	offset := 0
	for i, d := range reports {
		if !d.Processed || d.ParseErr != nil {
			continue
		}

		res := &results[i]
		ids := res.MaxID()
		res.Offset(offset)
		offset += ids

		d.Rows = res.Rows
		d.Sequences = res.Sequences
		d.Incomplete = res.Incomplete
		d.BuyEntries = res.BuyEntries
		d.SellEntries = res.SellEntries

		if d.Symbol == "" {
			for _, row := range d.Rows {
				if row.Symbol != "" {
					d.Symbol = row.Symbol
					break
				}
			}
		}
	}

	return reports, nil
}

// Classify runs the classification and selection stages: load every report,
// pool the completed sequences of included ones and select per (symbol,
// side). Incomplete sequences stay behind on their reports.
func (a *Analyzer) Classify(ctx context.Context) (*Batch, error) {
	reports, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []sequence.Sequence
	for _, d := range reports {
		if d.Entry.Include && d.ParseErr == nil {
			candidates = append(candidates, d.Sequences...)
		}
	}

	sel, err := selection.Select(candidates)
	if err != nil {
		return nil, err
	}

	accepted := map[string][]mt5.Deal{}
	for _, s := range sel.Accepted {
		for _, row := range s.Deals {
			accepted[s.Report] = append(accepted[s.Report], row.Deal)
		}
	}
	for _, d := range reports {
		d.Accepted = accepted[d.Name]
	}

	a.log.Info("selection complete",
		"candidates", len(candidates),
		"accepted", len(sel.Accepted),
		"rejected", len(sel.Rejected))

	return &Batch{Reports: reports, Selection: sel}, nil
}

// Analyze runs a full batch: classification, selection, portfolio
// reconstruction and per-report metrics, assembled into a Run.
func (a *Analyzer) Analyze(ctx context.Context) (*Outcome, error) {
	batch, err := a.Classify(ctx)
	if err != nil {
		return nil, err
	}

	var accepted []mt5.Deal
	for _, d := range batch.Reports {
		accepted = append(accepted, d.Accepted...)
	}

	start, end := a.opts.Start, a.opts.End
	if start.IsZero() || end.IsZero() {
		ds, de := portfolio.DefaultRange(accepted, time.Now())
		if start.IsZero() {
			start = ds
		}
		if end.IsZero() {
			end = de
		}
	}
	a.log.Info("analysis range", "start", start.Format(DateLayout), "end", end.Format(DateLayout))

	pooled := portfolio.Reconstruct(accepted, a.opts.Base, start, end)
	maxAbs, maxPct := pooled.MaxDrawdown()

	inRange := filterRange(accepted, start, end)
	included := map[string]bool{}
	for _, dl := range inRange {
		included[dl.Report] = true
	}

	var curves []*portfolio.Series
	for _, d := range batch.Reports {
		if included[d.Name] {
			curves = append(curves, portfolio.Reconstruct(d.Accepted, a.opts.Base, start, end))
		}
	}

	run := &Run{
		OutputDir:       a.opts.OutputDir,
		BaseCapital:     a.opts.Base,
		Start:           start.Format(DateLayout),
		End:             end.Format(DateLayout),
		IncludedReports: len(included),
		TotalReports:    len(batch.Reports),
		FinalBalance:    pooled.FinalBalance(),
		MaxDrawdownAbs:  maxAbs,
		MaxDrawdownPct:  maxPct,
		Monthly:         newMonthlyTable(portfolio.MonthlyBreakdown(inRange)),
	}
	run.TotalProfit = run.FinalBalance.Sub(a.opts.Base)

	if worst, ok := portfolio.ConservativeDaily(curves); ok {
		run.ConservativeDD = worst.Value
		run.ConservativeDay = worst.Date.Format(DateLayout)
	}

	for _, d := range batch.Reports {
		if !d.Entry.Include {
			run.Excluded = append(run.Excluded, d.Name)
		} else if !included[d.Name] {
			run.Overlapping = append(run.Overlapping, d.Name)
		}
	}
	sort.Strings(run.Excluded)
	sort.Strings(run.Overlapping)

	for _, d := range batch.Reports {
		run.Reports = append(run.Reports, a.buildReport(d, included[d.Name], start, end))
	}

	return &Outcome{
		Batch:  *batch,
		Run:    run,
		Start:  start,
		End:    end,
		Pooled: pooled,
	}, nil
}

// filterRange keeps deals with start <= t < end.
func filterRange(deals []mt5.Deal, start, end time.Time) []mt5.Deal {
	var out []mt5.Deal
	for _, d := range deals {
		if !d.Time.Before(start) && d.Time.Before(end) {
			out = append(out, d)
		}
	}
	return out
}

func newProgressBar(n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Processing reports..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
