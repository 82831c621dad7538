package portfolio

import (
	"sort"
	"time"

	"github.com/csvk/MT5Enhance/internal/mt5"
	"github.com/shopspring/decimal"
)

// Contributor is one (symbol, report) row of the monthly breakdown, with
// its profit per calendar month aligned to Breakdown.Months.
type Contributor struct {
	Symbol string
	Report string
	Values []decimal.Decimal
	Total  decimal.Decimal
}

// Breakdown is the monthly contributor table over a set of accepted exits:
// one row per (symbol, report), one column per month observed anywhere in
// the input, plus per-month and grand totals. Rows sort by symbol then
// report and months ascend, so rendering the table twice from the same run
// yields identical bytes.
type Breakdown struct {
	Months      []time.Time
	Rows        []Contributor
	MonthTotals []decimal.Decimal
	GrandTotal  decimal.Decimal
}

// MonthlyBreakdown aggregates exit deals into the contributor table. Only
// exits count; entry and balance rows are skipped. Months no deal falls in
// get no column.
func MonthlyBreakdown(deals []mt5.Deal) Breakdown {
	type rowKey struct {
		symbol string
		report string
	}
	cells := map[rowKey]map[time.Time]decimal.Decimal{}
	months := map[time.Time]struct{}{}
	for _, d := range deals {
		if !d.IsExit() {
			continue
		}
		m := floorMonth(d.Time)
		months[m] = struct{}{}
		k := rowKey{symbol: d.Symbol, report: d.Report}
		if cells[k] == nil {
			cells[k] = map[time.Time]decimal.Decimal{}
		}
		cells[k][m] = cells[k][m].Add(d.NetPnL())
	}

	var b Breakdown
	for m := range months {
		b.Months = append(b.Months, m)
	}
	sort.Slice(b.Months, func(i, j int) bool { return b.Months[i].Before(b.Months[j]) })

	keys := make([]rowKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].symbol != keys[j].symbol {
			return keys[i].symbol < keys[j].symbol
		}
		return keys[i].report < keys[j].report
	})

	b.MonthTotals = make([]decimal.Decimal, len(b.Months))
	for _, k := range keys {
		row := Contributor{Symbol: k.symbol, Report: k.report, Values: make([]decimal.Decimal, len(b.Months))}
		for i, m := range b.Months {
			v := cells[k][m]
			row.Values[i] = v
			row.Total = row.Total.Add(v)
			b.MonthTotals[i] = b.MonthTotals[i].Add(v)
		}
		b.GrandTotal = b.GrandTotal.Add(row.Total)
		b.Rows = append(b.Rows, row)
	}
	return b
}
