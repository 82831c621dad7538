package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doublingParams() Params {
	return Params{
		LotSize:         0.01,
		LotSizeExponent: 2,
		MaxLots:         999,
		PipStep:         10,
		PipStepExponent: 1,
		MaxPipStep:      0,
		LiveDelay:       0,
	}
}

// Hand-computed table for a doubling ladder with a flat 10 pip step:
// level i marks volumes 0.01*2^(j-1) at the next trigger price.
func TestCompute_levelTable(t *testing.T) {
	est, err := Compute(doublingParams(), 0.0001, 1.0, 10, 10)
	require.NoError(t, err)
	require.Equal(t, levelCount, len(est.Levels))

	wantDD := []float64{1, 4, 11, 26, 57, 120, 247, 502, 1013}
	for i, want := range wantDD {
		lvl := est.Levels[i]
		assert.Equal(t, i+1, lvl.Level)
		assert.InDelta(t, want, lvl.DayDD, 1e-6, "level %d", i+1)
		assert.InDelta(t, want, lvl.MeanDD, 1e-6, "level %d", i+1)
		assert.InDelta(t, float64(10*(i+1)), lvl.DayGap, 1e-9, "level %d", i+1)
	}
	assert.InDelta(t, 0.01, est.Levels[0].Lot, 1e-12)
	assert.InDelta(t, 0.08, est.Levels[3].Lot, 1e-12)
}

// The $502 -> $1013 crossing happens with 5.11 lots open; walking
// (1000-502)/(5.11*100000) beyond the level 9 fill lands at 89.7456 pips.
func TestCompute_thresholdCrossover(t *testing.T) {
	est, err := Compute(doublingParams(), 0.0001, 1.0, 10, 10)
	require.NoError(t, err)

	require.NotNil(t, est.DayCross)
	assert.Equal(t, 9, est.DayCross.Level)
	assert.InDelta(t, 89.7456, est.DayCross.Gap, 1e-3)

	require.NotNil(t, est.MeanCross)
	assert.Equal(t, 9, est.MeanCross.Level)
}

func TestCompute_lotSensitivity(t *testing.T) {
	est, err := Compute(doublingParams(), 0.0001, 1.0, 10, 10)
	require.NoError(t, err)
	require.Equal(t, len(SensitivityLots), len(est.Sensitivity))

	s1 := est.Sensitivity[0]
	require.True(t, s1.OK)
	assert.InDelta(t, 0.01, s1.Lot, 1e-12)
	assert.InDelta(t, 89.7456, s1.Gap, 1e-3)
	assert.InDelta(t, 5.11, s1.Lots, 1e-9)
	assert.Equal(t, "L9-10", s1.Level)

	// Doubling the starting lot halves the surviving depth: 0.02 crosses
	// between level 7 ($494) and level 8 ($1004).
	s2 := est.Sensitivity[1]
	require.True(t, s2.OK)
	assert.InDelta(t, 70+10*506.0/510.0, s2.Gap, 1e-6)
	assert.InDelta(t, 5.10, s2.Lots, 1e-9)
	assert.Equal(t, "L8-9", s2.Level)
}

func TestCompute_liveDelayCollapsesIntoFirstLevel(t *testing.T) {
	p := doublingParams()
	p.LiveDelay = 1
	est, err := Compute(p, 0.0001, 1.0, 10, 10)
	require.NoError(t, err)

	// Level 1 carries the virtual entry plus the first fill: 0.01 + 0.02.
	assert.InDelta(t, 0.03, est.Levels[0].Lot, 1e-12)
	assert.InDelta(t, 0.04, est.Levels[1].Lot, 1e-12)
	assert.InDelta(t, 3, est.Levels[0].DayDD, 1e-6)
	assert.InDelta(t, 10, est.Levels[1].DayDD, 1e-6)
}

func TestCompute_maxPipStepCapsGaps(t *testing.T) {
	p := doublingParams()
	p.PipStepExponent = 2
	p.MaxPipStep = 15
	est, err := Compute(p, 0.0001, 1.0, 10, 10)
	require.NoError(t, err)

	// Gaps 10, min(15,20), min(15,40): cumulative 10, 25, 40.
	assert.InDelta(t, 10, est.Levels[0].DayGap, 1e-9)
	assert.InDelta(t, 25, est.Levels[1].DayGap, 1e-9)
	assert.InDelta(t, 40, est.Levels[2].DayGap, 1e-9)
}

func TestCompute_atrScaling(t *testing.T) {
	p := doublingParams()
	p.PipStep = -3
	p.MaxPipStep = -15
	est, err := Compute(p, 0.0001, 1.0, 30, 24)
	require.NoError(t, err)

	// Observed 30 pips over a |-3| configured step scales |MaxPipStep| by 10.
	assert.InDelta(t, 150, est.DayMax, 1e-9)
	assert.InDelta(t, 120, est.GlobalMax, 1e-9)
}

func TestCompute_unsatisfiableParams(t *testing.T) {
	p := doublingParams()
	p.PipStep = 5
	p.MaxPipStep = -10
	_, err := Compute(p, 0.0001, 1.0, 5, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no observed step")
}

func TestCompute_fxFactorScalesUSD(t *testing.T) {
	est, err := Compute(doublingParams(), 0.0001, 0.5, 10, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, est.Levels[0].DayDD, 1e-9)
	assert.InDelta(t, 2.0, est.Levels[1].DayDD, 1e-9)
}

func TestPointSize(t *testing.T) {
	assert.Equal(t, 0.0001, PointSize("EURUSD"))
	assert.Equal(t, 0.01, PointSize("GBPJPY.a"))
	assert.Equal(t, 0.01, PointSize("usdjpy"))
}

func TestParamsUnsatisfiable(t *testing.T) {
	assert.True(t, Params{PipStep: 5, MaxPipStep: -1}.Unsatisfiable())
	assert.False(t, Params{PipStep: -5, MaxPipStep: -1}.Unsatisfiable())
	assert.False(t, Params{PipStep: 5, MaxPipStep: 20}.Unsatisfiable())
}
