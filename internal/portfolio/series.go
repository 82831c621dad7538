// Package portfolio reconstructs balance curves from exit deals and
// aggregates them into portfolio-level drawdown and contribution figures.
package portfolio

import (
	"sort"
	"time"

	"github.com/csvk/MT5Enhance/internal/mt5"
	"github.com/shopspring/decimal"
)

// Point is one step of a balance curve: the account state from Time
// (inclusive) until the next point. Peak is the running balance maximum,
// DrawdownAbs the distance below it (always <= 0) and DrawdownPct the same
// distance as a fraction of the peak.
type Point struct {
	Time        time.Time
	Balance     decimal.Decimal
	Peak        decimal.Decimal
	DrawdownAbs decimal.Decimal
	DrawdownPct decimal.Decimal
}

// Series is a balance curve over [Start, End) stored as change points above
// a flat Base: the balance holds Base before the first point and the latest
// point's value from then on. Every minimum and maximum of the step function
// occurs at a change point, so metrics computed over Points equal metrics
// over a per-minute materialization of the same curve.
type Series struct {
	Start  time.Time
	End    time.Time
	Base   decimal.Decimal
	Points []Point
}

// Reconstruct replays exit deals into a balance curve over [start, end).
// Only exits move the balance, by their net profit; exits sharing a 1-minute
// bucket are summed before the balance steps once. Deals outside the range
// are ignored. A run recomputes the curve wholesale on any input change;
// there is no incremental path.
func Reconstruct(deals []mt5.Deal, base decimal.Decimal, start, end time.Time) *Series {
	buckets := map[time.Time]decimal.Decimal{}
	for _, d := range deals {
		if !d.IsExit() {
			continue
		}
		if d.Time.Before(start) || !d.Time.Before(end) {
			continue
		}
		t := d.Time.Truncate(time.Minute)
		buckets[t] = buckets[t].Add(d.NetPnL())
	}

	times := make([]time.Time, 0, len(buckets))
	for t := range buckets {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	s := &Series{Start: start, End: end, Base: base, Points: make([]Point, 0, len(times))}
	balance := base
	peak := base
	for _, t := range times {
		balance = balance.Add(buckets[t])
		if balance.GreaterThan(peak) {
			peak = balance
		}
		p := Point{
			Time:        t,
			Balance:     balance,
			Peak:        peak,
			DrawdownAbs: balance.Sub(peak),
		}
		if !peak.IsZero() {
			p.DrawdownPct = balance.Div(peak).Sub(decimal.NewFromInt(1))
		}
		s.Points = append(s.Points, p)
	}
	return s
}

// FinalBalance is the balance standing at the end of the range.
func (s *Series) FinalBalance() decimal.Decimal {
	if len(s.Points) == 0 {
		return s.Base
	}
	return s.Points[len(s.Points)-1].Balance
}

// MaxDrawdown returns the most negative absolute and percentage drawdowns
// of the curve. Both are zero for a curve that never leaves its peak.
func (s *Series) MaxDrawdown() (abs, pct decimal.Decimal) {
	for _, p := range s.Points {
		if p.DrawdownAbs.LessThan(abs) {
			abs = p.DrawdownAbs
		}
		if p.DrawdownPct.LessThan(pct) {
			pct = p.DrawdownPct
		}
	}
	return abs, pct
}

// DefaultRange derives the analysis window from the deal times: the day of
// the earliest deal through the day after the latest. With no deals the
// window anchors on now and covers the past year, so an all-empty run still
// produces a representable flat curve.
func DefaultRange(deals []mt5.Deal, now time.Time) (start, end time.Time) {
	if len(deals) == 0 {
		return floorDay(now.AddDate(0, 0, -365)), floorDay(now.AddDate(0, 0, 1))
	}
	first, last := deals[0].Time, deals[0].Time
	for _, d := range deals[1:] {
		if d.Time.Before(first) {
			first = d.Time
		}
		if d.Time.After(last) {
			last = d.Time
		}
	}
	return floorDay(first), floorDay(last).AddDate(0, 0, 1)
}

func floorDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func floorMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
