package grid

import (
	"math"
	"sort"
	"time"

	"github.com/csvk/MT5Enhance/internal/mt5"
)

// entrySequences groups entry rows by sequence id, time-sorted within each
// group. Rows the classifier left unannotated carry no grid structure and
// are skipped.
func entrySequences(rows []mt5.TradeRow) [][]mt5.TradeRow {
	bySeq := map[int][]mt5.TradeRow{}
	for _, r := range rows {
		if r.IsEntry() && r.Sequence > 0 {
			bySeq[r.Sequence] = append(bySeq[r.Sequence], r)
		}
	}
	ids := make([]int, 0, len(bySeq))
	for id := range bySeq {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([][]mt5.TradeRow, 0, len(ids))
	for _, id := range ids {
		g := bySeq[id]
		sort.SliceStable(g, func(i, j int) bool { return g[i].Time.Before(g[j].Time) })
		out = append(out, g)
	}
	return out
}

func pipDistance(a, b mt5.TradeRow, point float64) float64 {
	return math.Abs(b.Price.InexactFloat64()-a.Price.InexactFloat64()) / point
}

// GlobalMeanGap is the mean pip distance between consecutive entries
// within each sequence, across the whole report. ok is false when no
// sequence carries two entries.
func GlobalMeanGap(rows []mt5.TradeRow, point float64) (gap float64, ok bool) {
	var sum float64
	var n int
	for _, g := range entrySequences(rows) {
		for i := 0; i+1 < len(g); i++ {
			sum += pipDistance(g[i], g[i+1], point)
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// DayMeanGap is GlobalMeanGap restricted to entries on one calendar day.
func DayMeanGap(rows []mt5.TradeRow, day time.Time, point float64) (gap float64, ok bool) {
	return GlobalMeanGap(rowsOnDay(rows, day), point)
}

// meanFirstGap averages the opening gap, first entry to second, of every
// sequence with at least two entries in rows.
func meanFirstGap(rows []mt5.TradeRow, point float64) (gap float64, ok bool) {
	var sum float64
	var n int
	for _, g := range entrySequences(rows) {
		if len(g) >= 2 {
			sum += pipDistance(g[0], g[1], point)
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// AutoTargetDay picks the day the estimator anchors on when none was
// given. With a negative PipStep it is the day whose sequences opened with
// the widest mean first gap; with a constant step every entry day scores
// the same and the earliest wins. ok is false when no day qualifies, which
// with a PipStep below -1 means no day had a measurable gap.
func AutoTargetDay(rows []mt5.TradeRow, pipStep, point float64) (day time.Time, ok bool) {
	days := map[time.Time][]mt5.TradeRow{}
	for _, r := range rows {
		if r.IsEntry() && r.Sequence > 0 {
			d := dayOf(r.Time)
			days[d] = append(days[d], r)
		}
	}
	order := make([]time.Time, 0, len(days))
	for d := range days {
		order = append(order, d)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	best := -1.0
	for _, d := range order {
		step := pipStep
		if pipStep < 0 {
			if m, found := meanFirstGap(days[d], point); found {
				step = m
			}
		}
		if step > best {
			best = step
			day = d
			ok = true
		}
	}
	return day, ok
}

func rowsOnDay(rows []mt5.TradeRow, day time.Time) []mt5.TradeRow {
	d := dayOf(day)
	var out []mt5.TradeRow
	for _, r := range rows {
		if dayOf(r.Time).Equal(d) {
			out = append(out, r)
		}
	}
	return out
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
