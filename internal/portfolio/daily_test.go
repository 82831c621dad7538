package portfolio

import (
	"testing"

	"github.com/csvk/MT5Enhance/internal/mt5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A loss in one report can be masked in the pooled curve by a same-day gain
// in another. The conservative figure must not mask it.
func TestConservativeDaily_morePessimisticThanPooled(t *testing.T) {
	base := decimal.NewFromInt(1000)
	start, end := day("2023.01.02"), day("2023.01.03")

	dealsA := []mt5.Deal{
		exit("2023.01.02 10:00:00", -100),
		exit("2023.01.02 11:00:00", 100),
	}
	dealsB := []mt5.Deal{
		exit("2023.01.02 10:30:00", 100),
		exit("2023.01.02 11:30:00", -100),
	}

	pooled := Reconstruct(append(append([]mt5.Deal{}, dealsA...), dealsB...), base, start, end)
	pooledAbs, _ := pooled.MaxDrawdown()
	assert.True(t, decimal.NewFromInt(-100).Equal(pooledAbs))

	worst, ok := ConservativeDaily([]*Series{
		Reconstruct(dealsA, base, start, end),
		Reconstruct(dealsB, base, start, end),
	})
	require.True(t, ok)
	assert.Equal(t, day("2023.01.02"), worst.Date)
	assert.True(t, decimal.NewFromInt(-200).Equal(worst.Value))
	assert.True(t, worst.Value.LessThanOrEqual(pooledAbs))
}

func TestConservativeDaily_carriesAcrossDays(t *testing.T) {
	base := decimal.NewFromInt(1000)
	start, end := day("2023.01.02"), day("2023.01.04")

	// Report A dips on day one and never recovers; report B only trades on
	// day two. Day two inherits A's standing drawdown.
	a := Reconstruct([]mt5.Deal{exit("2023.01.02 10:00:00", -50)}, base, start, end)
	b := Reconstruct([]mt5.Deal{exit("2023.01.03 10:00:00", -30)}, base, start, end)

	worst, ok := ConservativeDaily([]*Series{a, b})
	require.True(t, ok)
	assert.Equal(t, day("2023.01.03"), worst.Date)
	assert.True(t, decimal.NewFromInt(-80).Equal(worst.Value))
}

func TestConservativeDaily_tieKeepsEarliestDay(t *testing.T) {
	base := decimal.NewFromInt(1000)
	start, end := day("2023.01.02"), day("2023.01.04")

	s := Reconstruct([]mt5.Deal{exit("2023.01.02 10:00:00", -50)}, base, start, end)

	worst, ok := ConservativeDaily([]*Series{s})
	require.True(t, ok)
	assert.Equal(t, day("2023.01.02"), worst.Date)
	assert.True(t, decimal.NewFromInt(-50).Equal(worst.Value))
}

func TestConservativeDaily_degenerate(t *testing.T) {
	if _, ok := ConservativeDaily(nil); ok {
		t.Fatal("no curves must not produce a worst day")
	}

	empty := &Series{Start: day("2023.01.02"), End: day("2023.01.02"), Base: decimal.NewFromInt(1000)}
	if _, ok := ConservativeDaily([]*Series{empty}); ok {
		t.Fatal("empty range must not produce a worst day")
	}
}
