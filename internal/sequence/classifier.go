package sequence

import (
	"time"

	"github.com/csvk/MT5Enhance/internal/mt5"
	"github.com/shopspring/decimal"
)

// eps is the open-volume tolerance. Lot volumes accumulate rounding error in
// the source reports, so a side counts as flat when its volume is below this.
var eps = decimal.New(1, -6)

// Result is the output of classifying one report.
type Result struct {
	// Rows is every input row in original time order, annotated with its
	// sequence id (0 = none) and 1-based entry index (0 for exits and
	// balance rows).
	Rows []mt5.TradeRow

	// Sequences are the completed open-to-flat cycles, in completion order.
	Sequences []Sequence

	// Incomplete holds trailing exposure that never returned to flat.
	Incomplete []Sequence

	BuyEntries  int
	SellEntries int
}

// MaxID returns the highest sequence id allocated to this result, used when
// merging per-report results into batch-wide numbering.
func (r *Result) MaxID() int {
	max := 0
	for _, s := range r.Sequences {
		if s.ID > max {
			max = s.ID
		}
	}
	for _, s := range r.Incomplete {
		if s.ID > max {
			max = s.ID
		}
	}
	return max
}

// Offset shifts every sequence id in the result by n. Ids stay display
// labels only; no ordering is implied across reports.
func (r *Result) Offset(n int) {
	if n == 0 {
		return
	}
	for i := range r.Rows {
		if r.Rows[i].Sequence > 0 {
			r.Rows[i].Sequence += n
		}
	}
	offsetSequences(r.Sequences, n)
	offsetSequences(r.Incomplete, n)
}

func offsetSequences(seqs []Sequence, n int) {
	for i := range seqs {
		seqs[i].ID += n
		for j := range seqs[i].Deals {
			if seqs[i].Deals[j].Sequence > 0 {
				seqs[i].Deals[j].Sequence += n
			}
		}
	}
}

// Classify walks one report's deals in time order and groups them into
// sequences. Long and short exposure run on independent volume accumulators:
// a buy/in opens or deepens the long side, a sell/out unwinds it, and the
// mirrored pair drives the short side. An in/out fill flattens whichever
// side is currently open (long checked first) and never counts as an entry.
// Balance rows pass through annotated with sequence id 0.
func Classify(deals []mt5.Deal, counter *Counter) Result {
	r := run{counter: counter}
	r.long.side = SideLong
	r.short.side = SideShort

	for _, d := range deals {
		row := mt5.TradeRow{Deal: d}
		switch {
		case d.Type == mt5.TypeBalance:
			// bookkeeping only
		case d.Type == mt5.TypeBuy && d.Direction == mt5.DirIn:
			r.res.BuyEntries++
			r.enter(&r.long, &row)
		case d.Type == mt5.TypeSell && d.Direction == mt5.DirIn:
			r.res.SellEntries++
			r.enter(&r.short, &row)
		case d.Type == mt5.TypeSell && d.Direction == mt5.DirOut && r.long.open():
			r.exit(&r.long, &row)
		case d.Type == mt5.TypeBuy && d.Direction == mt5.DirOut && r.short.open():
			r.exit(&r.short, &row)
		case d.Direction == mt5.DirInOut && r.long.open():
			r.exit(&r.long, &row)
		case d.Direction == mt5.DirInOut && r.short.open():
			r.exit(&r.short, &row)
		}
		r.res.Rows = append(r.res.Rows, row)
	}

	r.finish(&r.long)
	r.finish(&r.short)
	return r.res
}

type run struct {
	counter *Counter
	res     Result
	long    sideState
	short   sideState
}

type sideState struct {
	side    Side
	vol     decimal.Decimal
	buf     []mt5.TradeRow
	seqID   int
	entries int
}

func (s *sideState) open() bool {
	return s.vol.GreaterThan(eps)
}

func (r *run) enter(s *sideState, row *mt5.TradeRow) {
	if s.vol.LessThan(eps) {
		s.seqID = r.counter.Next()
		s.entries = 1
		s.buf = nil
	} else {
		s.entries++
	}

	s.vol = s.vol.Add(row.Volume)
	row.Sequence = s.seqID
	row.EntryIndex = s.entries
	s.buf = append(s.buf, *row)

	r.complete(s, row.Time)
}

func (r *run) exit(s *sideState, row *mt5.TradeRow) {
	s.vol = s.vol.Sub(row.Volume)
	row.Sequence = s.seqID
	s.buf = append(s.buf, *row)

	r.complete(s, row.Time)
}

// complete emits the side's buffer as a finished sequence once its open
// volume is back under eps, then resets the side.
func (r *run) complete(s *sideState, end time.Time) {
	if !s.vol.LessThan(eps) {
		return
	}

	if len(s.buf) > 0 {
		r.res.Sequences = append(r.res.Sequences, Sequence{
			ID:     s.seqID,
			Symbol: s.buf[0].Symbol,
			Side:   s.side,
			Report: s.buf[0].Report,
			Start:  s.buf[0].Time,
			End:    end,
			Deals:  s.buf,
		})
	}

	s.vol = decimal.Decimal{}
	s.seqID = 0
	s.entries = 0
	s.buf = nil
}

// finish converts a side's trailing buffer into an explicit Incomplete
// sequence rather than dropping it.
func (r *run) finish(s *sideState) {
	if s.seqID == 0 || len(s.buf) == 0 {
		return
	}

	r.res.Incomplete = append(r.res.Incomplete, Sequence{
		ID:         s.seqID,
		Symbol:     s.buf[0].Symbol,
		Side:       s.side,
		Report:     s.buf[0].Report,
		Start:      s.buf[0].Time,
		Incomplete: true,
		Deals:      s.buf,
	})
}
