package analysis

import (
	"path/filepath"
	"sort"

	"github.com/csvk/MT5Enhance/internal/mt5"
	"github.com/shopspring/decimal"
)

// FilteredManifestFile is where the filter command writes its result, next
// to the original manifest.
const FilteredManifestFile = "report_list.filtered.csv"

// Filter keeps the run's top n included reports by selected PnL and flips
// every other manifest entry to Include=0. Manifest order is preserved so
// the filtered list diffs cleanly against the original.
func Filter(run *Run, entries []mt5.ManifestEntry, n int) []mt5.ManifestEntry {
	type ranked struct {
		name string
		pnl  decimal.Decimal
	}

	var rows []ranked
	for i := range run.Reports {
		r := &run.Reports[i]
		if r.Status == StatusIncluded {
			rows = append(rows, ranked{name: r.Name, pnl: r.SelectedPnL})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].pnl.GreaterThan(rows[j].pnl)
	})

	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}

	keep := map[string]bool{}
	for _, r := range rows[:n] {
		keep[r.name] = true
	}

	out := make([]mt5.ManifestEntry, len(entries))
	for i, e := range entries {
		out[i] = mt5.ManifestEntry{Path: e.Path, Include: keep[filepath.Base(e.Path)]}
	}
	return out
}
