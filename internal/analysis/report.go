package analysis

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/csvk/MT5Enhance/internal/grid"
	"github.com/csvk/MT5Enhance/internal/mt5"
	"github.com/csvk/MT5Enhance/internal/portfolio"
	"github.com/csvk/MT5Enhance/internal/sequence"
)

// buildReport assembles one manifest entry's summary slice. included tells
// whether any of the report's accepted deals fall inside the window.
func (a *Analyzer) buildReport(d *ReportData, included bool, start, end time.Time) Report {
	r := Report{
		Name:    d.Name,
		Path:    d.Entry.Path,
		Symbol:  d.Symbol,
		Include: d.Entry.Include,
	}
	r.Status, r.Reason = reportStatus(d, included, start, end)
	if d.ParseErr != nil || len(d.Rows) == 0 {
		return r
	}

	deals := make([]mt5.Deal, 0, len(d.Rows))
	for _, row := range d.Rows {
		deals = append(deals, row.Deal)
		if row.IsExit() {
			r.TotalPnL = r.TotalPnL.Add(row.NetPnL())
		}
		if row.IsEntry() && r.InitialLot.IsZero() {
			r.InitialLot = row.Volume
		}
	}
	for _, dl := range filterRange(d.Accepted, start, end) {
		if dl.IsExit() {
			r.SelectedPnL = r.SelectedPnL.Add(dl.NetPnL())
		}
	}

	// The standalone curve spans the report's own data range regardless of
	// the portfolio window: its drawdown describes the strategy, not the
	// slice of it the portfolio happened to use.
	os, oe := portfolio.DefaultRange(deals, time.Now())
	d.OwnCurve = portfolio.Reconstruct(deals, a.opts.Base, os, oe)
	r.MaxDrawdownAbs, r.MaxDrawdownPct = d.OwnCurve.MaxDrawdown()

	if !r.MaxDrawdownAbs.IsZero() {
		r.RecoveryFactor = r.TotalPnL.Div(r.MaxDrawdownAbs).Abs()
	}

	r.BuyTrades = d.BuyEntries
	r.SellTrades = d.SellEntries

	all := make([]sequence.Sequence, 0, len(d.Sequences)+len(d.Incomplete))
	all = append(all, d.Sequences...)
	all = append(all, d.Incomplete...)

	if deepest := deepestSequence(all); deepest != nil {
		r.MaxTrades = deepest.MaxEntryIndex()
		r.MaxTradesDate = deepest.Start.Format(DateLayout)
		r.MaxTradesGap = entrySpanPips(deepest, grid.PointSize(d.Symbol))
	}
	r.Histogram = depthHistogram(all)
	r.Params = a.readSetParams(d.Base)

	return r
}

// reportStatus derives the status line shown for a manifest entry. The
// checks run most-specific first; the portfolio window is [start, end).
func reportStatus(d *ReportData, included bool, start, end time.Time) (status, reason string) {
	switch {
	case !d.Processed:
		return StatusSkipped, ReasonManual
	case d.ParseErr != nil || !hasTrades(d.Rows):
		return StatusSkipped, ReasonUnreadable
	case included:
		return StatusIncluded, ""
	case !d.Entry.Include:
		return StatusSkipped, ReasonManual
	case len(d.Accepted) > 0:
		// Selection took some of its sequences, just none inside the window.
		return StatusSkipped, ReasonDateRange
	case len(d.Sequences) > 0:
		return StatusSkipped, ReasonOverlap
	case anyRowInRange(d.Rows, start, end):
		return StatusPartial, ""
	default:
		return StatusSkipped, ReasonDateRange
	}
}

func hasTrades(rows []mt5.TradeRow) bool {
	for _, r := range rows {
		if r.IsTrade() {
			return true
		}
	}
	return false
}

func anyRowInRange(rows []mt5.TradeRow, start, end time.Time) bool {
	for _, r := range rows {
		if !r.Time.Before(start) && r.Time.Before(end) {
			return true
		}
	}
	return false
}

// deepestSequence picks the sequence that stacked the most entries; ties go
// to the earliest start.
func deepestSequence(seqs []sequence.Sequence) *sequence.Sequence {
	var best *sequence.Sequence
	depth := 0
	for i := range seqs {
		s := &seqs[i]
		n := s.MaxEntryIndex()
		if n > depth || (n == depth && best != nil && s.Start.Before(best.Start)) {
			best = s
			depth = n
		}
	}
	if depth == 0 {
		return nil
	}
	return best
}

// entrySpanPips is the price distance between a sequence's first and deepest
// entry, in pips. It spans the whole ladder the sequence built out.
func entrySpanPips(s *sequence.Sequence, point float64) float64 {
	var first, deepest *mt5.TradeRow
	depth := 0
	for i := range s.Deals {
		row := &s.Deals[i]
		if !row.IsEntry() {
			continue
		}
		if first == nil {
			first = row
		}
		if row.EntryIndex > depth {
			depth = row.EntryIndex
			deepest = row
		}
	}
	if first == nil || deepest == nil || point <= 0 {
		return 0
	}
	return first.Price.Sub(deepest.Price).Abs().InexactFloat64() / point
}

// depthHistogram buckets a report's sequences by entry depth. Completed and
// unterminated sequences both count; PnL comes from exits only, so an
// unterminated sequence contributes its partial closes.
func depthHistogram(seqs []sequence.Sequence) []HistogramBin {
	bins := map[int]*HistogramBin{}
	for i := range seqs {
		s := &seqs[i]
		n := s.MaxEntryIndex()
		if n == 0 {
			continue
		}
		b := bins[n]
		if b == nil {
			b = &HistogramBin{Length: n}
			bins[n] = b
		}
		b.Count++
		b.TotalPnL = b.TotalPnL.Add(s.NetPnL())
	}

	out := make([]HistogramBin, 0, len(bins))
	for _, b := range bins {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Length < out[j].Length })
	return out
}

// readSetParams loads the display parameters from sets/<base>.set when the
// output dir carries one.
func (a *Analyzer) readSetParams(base string) *SetParams {
	path := filepath.Join(a.opts.OutputDir, SetsDir, base+".set")
	s, err := mt5.ReadSetFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.log.Warn("failed to read set file", "path", path, "error", err)
		}
		return nil
	}

	p := &SetParams{}
	p.LotSize, _ = s.Value("LotSize")
	p.StopLoss, _ = s.Value("StopLoss")
	p.MaxLots, _ = s.Value("MaxLots")
	p.LotSizeExponent, _ = s.Value("LotSizeExponent")
	p.DelayTradeSequence, _ = s.Value("DelayTradeSequence")
	p.LiveDelay, _ = s.Value("LiveDelay")
	return p
}
