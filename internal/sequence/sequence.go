package sequence

import (
	"time"

	"github.com/csvk/MT5Enhance/internal/mt5"
	"github.com/shopspring/decimal"
)

// Side is the exposure track a sequence belongs to. Long and short are
// accounted independently: a hedging account can run grids both ways on one
// symbol at the same time, so the two must never be merged.
type Side int

const (
	SideLong Side = iota + 1
	SideShort
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "long"
	case SideShort:
		return "short"
	default:
		return ""
	}
}

// Counter allocates sequence ids. It is injected into Classify so that a
// batch controls id assignment: each report gets a fresh counter and ids are
// offset-merged afterwards, keeping runs reproducible.
type Counter struct {
	n int
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Next() int {
	c.n++
	return c.n
}

// Count returns how many ids have been allocated.
func (c *Counter) Count() int {
	return c.n
}

// Sequence is one open-to-flat cycle of same-side exposure on one symbol:
// it starts when the side's open volume leaves zero and ends when it returns
// there. An Incomplete sequence never reached flat before the report ended;
// it carries no End and must not be selected into a portfolio.
type Sequence struct {
	ID         int
	Symbol     string
	Side       Side
	Report     string
	Start      time.Time
	End        time.Time
	Incomplete bool
	Deals      []mt5.TradeRow
}

// NetPnL sums the balance impact of the sequence's exit deals.
func (s *Sequence) NetPnL() decimal.Decimal {
	var total decimal.Decimal
	for _, d := range s.Deals {
		if d.IsExit() {
			total = total.Add(d.NetPnL())
		}
	}
	return total
}

// MaxEntryIndex is the deepest grid level the sequence reached.
func (s *Sequence) MaxEntryIndex() int {
	max := 0
	for _, d := range s.Deals {
		if d.EntryIndex > max {
			max = d.EntryIndex
		}
	}
	return max
}

// EntryCount returns how many entry fills the sequence contains.
func (s *Sequence) EntryCount() int {
	n := 0
	for _, d := range s.Deals {
		if d.IsEntry() {
			n++
		}
	}
	return n
}
