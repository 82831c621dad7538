package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyWorst is the most pessimistic calendar day across a set of curves:
// the day whose summed per-curve worst drawdowns come out lowest, together
// with that sum.
type DailyWorst struct {
	Date  time.Time
	Value decimal.Decimal
}

// ConservativeDaily treats every report's worst moment of a day as if they
// had struck at once: per calendar day it takes each curve's most negative
// absolute drawdown, sums those across curves, and returns the worst day.
// The pooled curve nets a loss in one report against a same-day gain in
// another; this figure does not, so it is at least as pessimistic as the
// pooled max drawdown. All curves must share the same range. ok is false
// when there are no curves or the shared range is empty.
func ConservativeDaily(curves []*Series) (worst DailyWorst, ok bool) {
	if len(curves) == 0 {
		return DailyWorst{}, false
	}
	start := floorDay(curves[0].Start)
	end := curves[0].End
	if !start.Before(end) {
		return DailyWorst{}, false
	}

	minima := make([][]decimal.Decimal, len(curves))
	for i, c := range curves {
		minima[i] = dailyMinima(c, start, end)
	}

	day := start
	for i := 0; day.Before(end); i++ {
		var sum decimal.Decimal
		for _, m := range minima {
			sum = sum.Add(m[i])
		}
		if !ok || sum.LessThan(worst.Value) {
			worst = DailyWorst{Date: day, Value: sum}
			ok = true
		}
		day = day.AddDate(0, 0, 1)
	}
	return worst, ok
}

// dailyMinima materializes the curve's most negative drawdown for each
// calendar day of [start, end). A day without a change point carries the
// drawdown standing at the previous day's close.
func dailyMinima(s *Series, start, end time.Time) []decimal.Decimal {
	var out []decimal.Decimal
	var carry decimal.Decimal
	i := 0
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		low := carry
		for i < len(s.Points) && s.Points[i].Time.Before(next) {
			carry = s.Points[i].DrawdownAbs
			if carry.LessThan(low) {
				low = carry
			}
			i++
		}
		out = append(out, low)
	}
	return out
}
