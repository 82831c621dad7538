package sequence

import (
	"fmt"
	"testing"
	"time"

	"github.com/csvk/MT5Enhance/internal/mt5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deal(ts string, typ mt5.DealType, dir mt5.Direction, vol, profit float64) mt5.Deal {
	t, err := time.Parse(mt5.TimeLayout, ts)
	if err != nil {
		panic(err)
	}
	return mt5.Deal{
		Time:      t,
		Symbol:    "EURUSD",
		Type:      typ,
		Direction: dir,
		Volume:    decimal.NewFromFloat(vol),
		Profit:    decimal.NewFromFloat(profit),
		Report:    "r1",
	}
}

func TestClassify_singleSequence(t *testing.T) {
	deals := []mt5.Deal{
		deal("2023.01.02 09:00:00", mt5.TypeBuy, mt5.DirIn, 0.01, 0),
		deal("2023.01.02 09:05:00", mt5.TypeBuy, mt5.DirIn, 0.01, 0),
		deal("2023.01.02 09:10:00", mt5.TypeSell, mt5.DirOut, 0.02, 50),
	}

	res := Classify(deals, NewCounter())

	require.Equal(t, 1, len(res.Sequences))
	require.Equal(t, 0, len(res.Incomplete))

	seq := res.Sequences[0]
	assert.Equal(t, 1, seq.ID)
	assert.Equal(t, SideLong, seq.Side)
	assert.Equal(t, "EURUSD", seq.Symbol)
	assert.Equal(t, deals[0].Time, seq.Start)
	assert.Equal(t, deals[2].Time, seq.End)
	assert.Equal(t, 3, len(seq.Deals))
	assert.Equal(t, 2, seq.MaxEntryIndex())
	assert.True(t, decimal.NewFromInt(50).Equal(seq.NetPnL()))

	require.Equal(t, 3, len(res.Rows))
	assert.Equal(t, []int{1, 2, 0}, []int{res.Rows[0].EntryIndex, res.Rows[1].EntryIndex, res.Rows[2].EntryIndex})
	for _, row := range res.Rows {
		assert.Equal(t, 1, row.Sequence)
	}

	assert.Equal(t, 2, res.BuyEntries)
	assert.Equal(t, 0, res.SellEntries)
}

func TestClassify_volumeClosure(t *testing.T) {
	deals := []mt5.Deal{
		deal("2023.01.02 09:00:00", mt5.TypeBuy, mt5.DirIn, 0.1, 0),
		deal("2023.01.02 09:10:00", mt5.TypeBuy, mt5.DirIn, 0.15, 0),
		deal("2023.01.02 09:20:00", mt5.TypeSell, mt5.DirOut, 0.1, 10),
		deal("2023.01.02 09:30:00", mt5.TypeSell, mt5.DirOut, 0.15, 12),
		deal("2023.01.02 10:00:00", mt5.TypeBuy, mt5.DirIn, 0.2, 0),
		deal("2023.01.02 10:30:00", mt5.TypeSell, mt5.DirOut, 0.2, -5),
	}

	res := Classify(deals, NewCounter())
	require.Equal(t, 2, len(res.Sequences))

	for i, seq := range res.Sequences {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			var open, closed decimal.Decimal
			for _, d := range seq.Deals {
				if d.IsEntry() {
					open = open.Add(d.Volume)
				} else {
					closed = closed.Add(d.Volume)
				}
			}
			assert.True(t, open.Sub(closed).Abs().LessThan(eps))
		})
	}
}

func TestClassify_independentSides(t *testing.T) {
	deals := []mt5.Deal{
		deal("2023.01.02 09:00:00", mt5.TypeBuy, mt5.DirIn, 0.1, 0),
		deal("2023.01.02 09:05:00", mt5.TypeSell, mt5.DirIn, 0.2, 0),
		deal("2023.01.02 09:10:00", mt5.TypeBuy, mt5.DirOut, 0.2, 30),
		deal("2023.01.02 09:20:00", mt5.TypeSell, mt5.DirOut, 0.1, 15),
	}

	res := Classify(deals, NewCounter())
	require.Equal(t, 2, len(res.Sequences))

	// the short grid closed first but opened second
	short := res.Sequences[0]
	assert.Equal(t, SideShort, short.Side)
	assert.Equal(t, 2, short.ID)
	assert.Equal(t, deals[1].Time, short.Start)
	assert.Equal(t, deals[2].Time, short.End)

	long := res.Sequences[1]
	assert.Equal(t, SideLong, long.Side)
	assert.Equal(t, 1, long.ID)
	assert.Equal(t, deals[0].Time, long.Start)
	assert.Equal(t, deals[3].Time, long.End)

	assert.Equal(t, 1, res.BuyEntries)
	assert.Equal(t, 1, res.SellEntries)
}

func TestClassify_inOutFlattens(t *testing.T) {
	deals := []mt5.Deal{
		deal("2023.01.02 09:00:00", mt5.TypeBuy, mt5.DirIn, 0.1, 0),
		deal("2023.01.02 09:30:00", mt5.TypeSell, mt5.DirInOut, 0.1, -20),
	}

	res := Classify(deals, NewCounter())
	require.Equal(t, 1, len(res.Sequences))

	seq := res.Sequences[0]
	assert.Equal(t, 2, len(seq.Deals))
	assert.Equal(t, 1, seq.MaxEntryIndex())
	assert.Equal(t, 0, res.Rows[1].EntryIndex)
	assert.Equal(t, 1, res.Rows[1].Sequence)
	assert.True(t, decimal.NewFromInt(-20).Equal(seq.NetPnL()))
}

func TestClassify_incompleteIsExplicit(t *testing.T) {
	deals := []mt5.Deal{
		deal("2023.01.02 09:00:00", mt5.TypeBuy, mt5.DirIn, 0.1, 0),
		deal("2023.01.02 09:10:00", mt5.TypeSell, mt5.DirOut, 0.1, 5),
		deal("2023.01.02 10:00:00", mt5.TypeBuy, mt5.DirIn, 0.2, 0),
	}

	res := Classify(deals, NewCounter())

	require.Equal(t, 1, len(res.Sequences))
	require.Equal(t, 1, len(res.Incomplete))

	inc := res.Incomplete[0]
	assert.True(t, inc.Incomplete)
	assert.Equal(t, 2, inc.ID)
	assert.True(t, inc.End.IsZero())

	// the trailing entry stays visible in the annotated rows
	assert.Equal(t, 2, res.Rows[2].Sequence)
	assert.Equal(t, 1, res.Rows[2].EntryIndex)
}

func TestClassify_bookkeepingRows(t *testing.T) {
	balance := mt5.Deal{
		Time:   time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		Type:   mt5.TypeBalance,
		Profit: decimal.NewFromInt(100000),
		Report: "r1",
	}
	orphanExit := deal("2023.01.02 09:00:00", mt5.TypeSell, mt5.DirOut, 0.1, 7)

	res := Classify([]mt5.Deal{balance, orphanExit}, NewCounter())

	assert.Equal(t, 0, len(res.Sequences))
	require.Equal(t, 2, len(res.Rows))
	assert.Equal(t, 0, res.Rows[0].Sequence)
	assert.Equal(t, 0, res.Rows[1].Sequence)
}

func TestResult_Offset(t *testing.T) {
	deals := []mt5.Deal{
		deal("2023.01.02 09:00:00", mt5.TypeBuy, mt5.DirIn, 0.1, 0),
		deal("2023.01.02 09:10:00", mt5.TypeSell, mt5.DirOut, 0.1, 5),
		deal("2023.01.02 10:00:00", mt5.TypeBuy, mt5.DirIn, 0.2, 0),
	}

	res := Classify(deals, NewCounter())
	require.Equal(t, 2, res.MaxID())

	res.Offset(10)

	assert.Equal(t, 11, res.Sequences[0].ID)
	assert.Equal(t, 11, res.Rows[0].Sequence)
	assert.Equal(t, 11, res.Sequences[0].Deals[0].Sequence)
	assert.Equal(t, 12, res.Incomplete[0].ID)
	assert.Equal(t, 12, res.Rows[2].Sequence)
	assert.Equal(t, 12, res.MaxID())
}

func TestClassify_idempotent(t *testing.T) {
	deals := []mt5.Deal{
		deal("2023.01.02 09:00:00", mt5.TypeBuy, mt5.DirIn, 0.1, 0),
		deal("2023.01.02 09:05:00", mt5.TypeSell, mt5.DirIn, 0.1, 0),
		deal("2023.01.02 09:10:00", mt5.TypeSell, mt5.DirOut, 0.1, 9),
		deal("2023.01.02 09:15:00", mt5.TypeBuy, mt5.DirOut, 0.1, -3),
	}

	a := Classify(deals, NewCounter())
	b := Classify(deals, NewCounter())
	assert.Equal(t, a, b)
}
