// Package grid estimates the theoretical drawdown of a martingale grid from
// its engine parameters: how much adverse excursion each ladder level costs
// and where the loss crosses the $1,000 alert threshold.
package grid

import (
	"fmt"
	"math"
	"strings"

	"github.com/csvk/MT5Enhance/internal/mt5"
)

const (
	levelCount   = 20
	contractSize = 100000
	threshold    = 1000.0
)

// Params hold the grid engine settings read from a .set file.
type Params struct {
	LotSize         float64
	LotSizeExponent float64
	MaxLots         float64
	PipStep         float64
	PipStepExponent float64
	MaxPipStep      float64
	LiveDelay       int
}

// ParamsFromSet pulls the grid parameters out of a set file. Exponents
// default to 1 and MaxLots to 999 when the file does not carry them; the
// rest default to zero.
func ParamsFromSet(s *mt5.SetFile) Params {
	p := Params{LotSizeExponent: 1, MaxLots: 999, PipStepExponent: 1}
	if v, ok := s.LotSize(); ok {
		p.LotSize = v
	}
	if v, ok := s.LotSizeExponent(); ok {
		p.LotSizeExponent = v
	}
	if v, ok := s.MaxLots(); ok {
		p.MaxLots = v
	}
	if v, ok := s.PipStep(); ok {
		p.PipStep = v
	}
	if v, ok := s.PipStepExponent(); ok {
		p.PipStepExponent = v
	}
	if v, ok := s.MaxPipStep(); ok {
		p.MaxPipStep = v
	}
	if v, ok := s.LiveDelay(); ok {
		p.LiveDelay = v
	}
	return p
}

// Unsatisfiable reports the combination the estimator cannot model: a
// negative MaxPipStep scales by the observed step, which only exists when
// PipStep is negative too.
func (p Params) Unsatisfiable() bool {
	return p.MaxPipStep < 0 && p.PipStep > 0
}

func (p Params) lot(start float64, k int) float64 {
	return math.Min(p.MaxLots, start*math.Pow(p.LotSizeExponent, float64(k-1)))
}

// volumes builds the per-level open volume ladder for a starting lot.
// Level 1 absorbs the LiveDelay virtual entries plus the first physical
// fill; deeper levels map one ladder position each.
func (p Params) volumes(start float64) []float64 {
	v := make([]float64, levelCount+2)
	for j := 1; j <= p.LiveDelay+1; j++ {
		v[1] += p.lot(start, j)
	}
	for i := 2; i <= levelCount; i++ {
		v[i] = p.lot(start, p.LiveDelay+i)
	}
	return v
}

// priceLadder anchors the first physical fill at 1.0 and walks the grid
// outward: gap(k) = step * PipStepExponent^(k-1), capped at maxStep when
// the cap is positive.
func (p Params) priceLadder(step, maxStep, point float64) []float64 {
	prices := make([]float64, levelCount+3)
	prices[p.LiveDelay+1] = 1.0
	for k := p.LiveDelay + 1; k <= levelCount+1; k++ {
		gap := step * math.Pow(p.PipStepExponent, float64(k-1))
		if maxStep > 0 {
			gap = math.Min(maxStep, gap)
		}
		prices[k+1] = prices[k] + gap*point
	}
	return prices
}

// PointSize is the pip unit for a symbol: 0.01 for JPY-quoted pairs,
// 0.0001 otherwise.
func PointSize(symbol string) float64 {
	if strings.Contains(strings.ToUpper(symbol), "JPY") {
		return 0.01
	}
	return 0.0001
}

// Level is one row of the drawdown table: the lot opened at that depth and
// the cumulative adverse excursion (pips) and drawdown (USD) for both pip
// step scenarios, measured at the next level's trigger price.
type Level struct {
	Level   int
	Lot     float64
	DayGap  float64
	DayDD   float64
	MeanGap float64
	MeanDD  float64
}

// Crossover marks where a scenario's drawdown passes $1,000: the level row
// the crossing was detected on and the pip gap at exactly the threshold,
// interpolated from the open volume.
type Crossover struct {
	Level int
	Gap   float64
}

// LotSensitivity restates the 1k threshold for an alternative starting
// lot: the interpolated pip gap, the lots open at the crossing and the
// level span it falls in. OK is false when 20 levels never reach the
// threshold.
type LotSensitivity struct {
	Lot   float64
	Gap   float64
	Lots  float64
	Level string
	OK    bool
}

// Estimate is the full theoretical drawdown report for one parameter set.
type Estimate struct {
	Params      Params
	Point       float64
	FXFactor    float64
	DayStep     float64
	GlobalStep  float64
	DayMax      float64
	GlobalMax   float64
	Levels      []Level
	DayCross    *Crossover
	MeanCross   *Crossover
	Sensitivity []LotSensitivity
}

// SensitivityLots are the starting lots the 1k threshold is restated for.
var SensitivityLots = []float64{0.01, 0.02, 0.03, 0.04, 0.05}

// Compute builds the 20-level drawdown table. dayStep is the pip step for
// the target-day scenario (an override, the configured PipStep, or the
// observed mean gap on that day); globalStep drives the mean scenario and
// normally comes from the observed gaps across the whole report. fx
// converts quote-currency losses to USD.
func Compute(p Params, point, fx, dayStep, globalStep float64) (*Estimate, error) {
	if p.Unsatisfiable() {
		return nil, fmt.Errorf("MaxPipStep %.2f is negative while PipStep %.2f is positive: no observed step to scale by", p.MaxPipStep, p.PipStep)
	}
	if p.LiveDelay < 0 || p.LiveDelay > levelCount {
		return nil, fmt.Errorf("live delay %d out of range [0, %d]", p.LiveDelay, levelCount)
	}
	if point <= 0 {
		return nil, fmt.Errorf("point size %v must be positive", point)
	}

	est := &Estimate{
		Params:     p,
		Point:      point,
		FXFactor:   fx,
		DayStep:    dayStep,
		GlobalStep: globalStep,
		DayMax:     effectiveMaxStep(p, dayStep),
		GlobalMax:  effectiveMaxStep(p, globalStep),
	}

	volumes := p.volumes(p.LotSize)
	pricesDay := p.priceLadder(dayStep, est.DayMax, point)
	pricesMean := p.priceLadder(globalStep, est.GlobalMax, point)

	var prevDay, prevMean float64
	for i := 1; i <= levelCount; i++ {
		dayDD, dayGap := scenarioDD(p, volumes, pricesDay, point, fx, i)
		meanDD, meanGap := scenarioDD(p, volumes, pricesMean, point, fx, i)

		if est.DayCross == nil && prevDay < threshold && threshold <= dayDD {
			est.DayCross = crossover(p, volumes, pricesDay, point, fx, i, prevDay)
		}
		if est.MeanCross == nil && prevMean < threshold && threshold <= meanDD {
			est.MeanCross = crossover(p, volumes, pricesMean, point, fx, i, prevMean)
		}

		est.Levels = append(est.Levels, Level{
			Level:   i,
			Lot:     volumes[i],
			DayGap:  dayGap,
			DayDD:   dayDD,
			MeanGap: meanGap,
			MeanDD:  meanDD,
		})
		prevDay, prevMean = dayDD, meanDD
	}

	for _, lot := range SensitivityLots {
		est.Sensitivity = append(est.Sensitivity, lotSensitivity(p, pricesDay, point, fx, lot))
	}
	return est, nil
}

// effectiveMaxStep resolves a negative MaxPipStep, which means "that many
// multiples of the configured step", against the observed step actually in
// use for a scenario.
func effectiveMaxStep(p Params, step float64) float64 {
	if p.MaxPipStep >= 0 {
		return p.MaxPipStep
	}
	atr := 1.0
	if p.PipStep != 0 {
		atr = step / math.Abs(p.PipStep)
	}
	return atr * math.Abs(p.MaxPipStep)
}

// pidx clamps a ladder index to the materialized price array. Deep levels
// past the table end saturate at the last price.
func pidx(i int) int {
	if i > levelCount+2 {
		return levelCount + 2
	}
	return i
}

// scenarioDD is the drawdown at level i: every open position marked at the
// next level's trigger price, converted to USD.
func scenarioDD(p Params, volumes, prices []float64, point, fx float64, i int) (ddUSD, gapPips float64) {
	target := prices[pidx(p.LiveDelay+i+1)]
	var dd float64
	for j := 1; j <= i; j++ {
		dd += volumes[j] * math.Abs(target-prices[pidx(p.LiveDelay+j)])
	}
	return dd * contractSize * fx, math.Abs(target-1.0) / point
}

// crossover interpolates the pip gap at exactly $1,000 between level i's
// fill price and the next trigger, where volumes 1..i are open.
func crossover(p Params, volumes, prices []float64, point, fx float64, i int, prevDD float64) *Crossover {
	var openVol float64
	for j := 1; j <= i; j++ {
		openVol += volumes[j]
	}
	if openVol <= 0 {
		return nil
	}
	from := prices[pidx(p.LiveDelay+i)]
	to := prices[pidx(p.LiveDelay+i+1)]
	diff := (threshold - prevDD) / (openVol * contractSize * fx)
	at := from + diff
	if to < from {
		at = from - diff
	}
	return &Crossover{Level: i, Gap: math.Abs(at-1.0) / point}
}

// lotSensitivity rebuilds the volume ladder for an alternative starting
// lot and finds where its drawdown crosses $1,000 on the day scenario,
// interpolating the gap linearly between the two surrounding levels.
func lotSensitivity(p Params, prices []float64, point, fx float64, startLot float64) LotSensitivity {
	vols := p.volumes(startLot)
	out := LotSensitivity{Lot: startLot}

	var lastDD, lastGap float64
	for i := 1; i <= levelCount; i++ {
		target := prices[pidx(p.LiveDelay+i+1)]
		var dd, open float64
		for j := 1; j <= i; j++ {
			dd += vols[j] * math.Abs(target-prices[pidx(p.LiveDelay+j)])
			open += vols[j]
		}
		dd *= contractSize * fx
		gap := math.Abs(target-1.0) / point

		if lastDD < threshold && threshold <= dd {
			if dd > lastDD {
				out.Gap = lastGap + (gap-lastGap)*(threshold-lastDD)/(dd-lastDD)
				out.Lots = open
				out.Level = fmt.Sprintf("L%d-%d", i, i+1)
				out.OK = true
			}
			return out
		}
		lastDD, lastGap = dd, gap
	}
	return out
}
