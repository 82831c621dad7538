package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate(t *testing.T) {
	run := &Run{
		OutputDir: t.TempDir(),
		Monthly: &MonthlyTable{
			Rows: []MonthlyRow{
				{Symbol: "EURUSD", Report: "Alpha.htm", Total: decimal.NewFromInt(100)},
				{Symbol: "GBPJPY", Report: "Beta.htm", Total: decimal.NewFromInt(-40)},
			},
		},
		Reports: []Report{
			{Name: "Alpha.htm", InitialLot: decimal.NewFromFloat(0.01),
				MaxDrawdownAbs: decimal.NewFromInt(-500), MaxTrades: 9},
			{Name: "Beta.htm", InitialLot: decimal.NewFromFloat(0.02),
				MaxDrawdownAbs: decimal.NewFromInt(-200), MaxTrades: 4},
		},
	}

	sim := Simulate(run, discard())
	require.Equal(t, 5, len(sim.Lots))
	require.Equal(t, 2, len(sim.Rows))

	alpha := sim.Rows[0]
	assert.Equal(t, "Alpha.htm", alpha.Name)
	assert.Equal(t, 9, alpha.MaxTrades)
	require.Equal(t, 5, len(alpha.Scenarios))
	// Lot 0.01 equals the initial lot: figures unchanged.
	assert.True(t, decimal.NewFromInt(100).Equal(alpha.Scenarios[0].PnL))
	assert.True(t, decimal.NewFromInt(-500).Equal(alpha.Scenarios[0].MaxDD))
	// Lot 0.05 scales by 5.
	assert.True(t, decimal.NewFromInt(500).Equal(alpha.Scenarios[4].PnL))
	assert.True(t, decimal.NewFromInt(-2500).Equal(alpha.Scenarios[4].MaxDD))
	// No .set file in the output dir: no threshold figures.
	assert.False(t, alpha.Scenarios[0].HasGap)

	beta := sim.Rows[1]
	// Lot 0.01 on an initial 0.02 halves the figures.
	assert.True(t, decimal.NewFromInt(-20).Equal(beta.Scenarios[0].PnL))
	assert.True(t, decimal.NewFromInt(-100).Equal(beta.Scenarios[0].MaxDD))

	assert.True(t, decimal.NewFromInt(80).Equal(sim.TotalPnL[0]), sim.TotalPnL[0].String())
	assert.True(t, decimal.NewFromInt(-600).Equal(sim.TotalDD[0]), sim.TotalDD[0].String())
}

func TestSimulate_zeroInitialLot(t *testing.T) {
	run := &Run{
		OutputDir: t.TempDir(),
		Monthly: &MonthlyTable{
			Rows: []MonthlyRow{{Symbol: "EURUSD", Report: "Alpha.htm", Total: decimal.NewFromInt(100)}},
		},
		Reports: []Report{{Name: "Alpha.htm"}},
	}

	sim := Simulate(run, discard())
	require.Equal(t, 1, len(sim.Rows))
	for _, s := range sim.Rows[0].Scenarios {
		assert.True(t, s.PnL.IsZero())
		assert.True(t, s.MaxDD.IsZero())
	}
}

func TestSimulate_missingContributor(t *testing.T) {
	run := &Run{
		OutputDir: t.TempDir(),
		Monthly: &MonthlyTable{
			Rows: []MonthlyRow{{Symbol: "EURUSD", Report: "Ghost.htm", Total: decimal.NewFromInt(10)}},
		},
	}

	sim := Simulate(run, discard())
	assert.Empty(t, sim.Rows)
}

func TestSimulate_noPortfolio(t *testing.T) {
	sim := Simulate(&Run{OutputDir: t.TempDir()}, discard())
	assert.Empty(t, sim.Rows)
	require.Equal(t, 5, len(sim.TotalPnL))
	assert.True(t, sim.TotalPnL[0].IsZero())
}
