package selection

import (
	"fmt"
	"sort"
	"time"

	"github.com/csvk/MT5Enhance/internal/sequence"
)

// Selection is the outcome of non-overlap selection: sequences accepted into
// the portfolio and the ones rejected for overlapping an accepted one.
// Both are ordered by symbol, then side, then start time.
type Selection struct {
	Accepted []sequence.Sequence
	Rejected []sequence.Sequence
}

type group struct {
	symbol string
	side   sequence.Side
}

// Select picks a non-overlapping subset of sequences independently per
// (symbol, side): candidates are sorted by start time and accepted whenever
// their start is strictly after the last accepted end. Sorting by start
// favors whatever would have been live on the account first. Sorting by end
// time would accept more sequences, but reported results depend on the
// start-time order; do not change it.
//
// Incomplete sequences have no end time and must be filtered out by the
// caller; passing one is an error.
func Select(candidates []sequence.Sequence) (Selection, error) {
	groups := map[group][]sequence.Sequence{}
	for _, s := range candidates {
		if s.Incomplete {
			return Selection{}, fmt.Errorf("incomplete sequence %d (%s %s) cannot be selected", s.ID, s.Symbol, s.Side)
		}
		k := group{symbol: s.Symbol, side: s.Side}
		groups[k] = append(groups[k], s)
	}

	keys := make([]group, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].symbol != keys[j].symbol {
			return keys[i].symbol < keys[j].symbol
		}
		return keys[i].side < keys[j].side
	})

	var sel Selection
	for _, k := range keys {
		g := groups[k]
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].Start.Before(g[j].Start)
		})

		var lastEnd time.Time
		for _, s := range g {
			if s.Start.After(lastEnd) {
				sel.Accepted = append(sel.Accepted, s)
				lastEnd = s.End
			} else {
				sel.Rejected = append(sel.Rejected, s)
			}
		}
	}

	return sel, nil
}
