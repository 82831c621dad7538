package analysis

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/csvk/MT5Enhance/internal/grid"
	"github.com/shopspring/decimal"
)

// LotScenario restates one report's performance for a fixed starting lot.
// PnL and MaxDD scale linearly by lot / initial lot; the threshold figures
// come from the grid estimator and are absent when no .set file is around.
type LotScenario struct {
	Lot    float64
	PnL    decimal.Decimal
	MaxDD  decimal.Decimal
	HasGap bool
	Gap    float64
	Level  string
}

// SimRow is one portfolio contributor's row of the lot simulation.
type SimRow struct {
	Symbol     string
	Name       string
	Path       string
	MaxTrades  int
	MaxGap     float64
	InitialLot decimal.Decimal
	Scenarios  []LotScenario
}

// Simulation is the fixed-lot restatement of a run's contributors, with
// per-lot totals for the closing row.
type Simulation struct {
	Lots     []float64
	Rows     []SimRow
	TotalPnL []decimal.Decimal
	TotalDD  []decimal.Decimal
}

// Simulate rescales every portfolio contributor of a run to the standard
// sensitivity lots. The contributor's selected PnL and its standalone max
// drawdown scale by lot / initial lot; a report that never traded keeps
// zeroes. Threshold gaps and levels are recomputed with the estimator when
// the output dir has the report's .set file.
func Simulate(run *Run, log *slog.Logger) *Simulation {
	sim := &Simulation{
		Lots:     grid.SensitivityLots,
		TotalPnL: make([]decimal.Decimal, len(grid.SensitivityLots)),
		TotalDD:  make([]decimal.Decimal, len(grid.SensitivityLots)),
	}
	if run.Monthly == nil {
		return sim
	}

	reports := map[string]*Report{}
	for i := range run.Reports {
		reports[run.Reports[i].Name] = &run.Reports[i]
	}

	for _, row := range run.Monthly.Rows {
		rep := reports[row.Report]
		if rep == nil {
			log.Warn("portfolio contributor missing from run reports", "report", row.Report)
			continue
		}

		r := SimRow{
			Symbol:     row.Symbol,
			Name:       rep.Name,
			Path:       rep.Path,
			MaxTrades:  rep.MaxTrades,
			MaxGap:     rep.MaxTradesGap,
			InitialLot: rep.InitialLot,
		}

		var sens []grid.LotSensitivity
		if est := reportEstimate(run, rep, log); est != nil {
			sens = est.Estimate.Sensitivity
		}

		for i, lot := range sim.Lots {
			s := LotScenario{Lot: lot}
			if rep.InitialLot.Sign() > 0 {
				mult := decimal.NewFromFloat(lot).Div(rep.InitialLot)
				s.PnL = row.Total.Mul(mult)
				s.MaxDD = rep.MaxDrawdownAbs.Mul(mult)
			}
			if i < len(sens) && sens[i].OK {
				s.HasGap = true
				s.Gap = sens[i].Gap
				s.Level = sens[i].Level
			}

			sim.TotalPnL[i] = sim.TotalPnL[i].Add(s.PnL)
			sim.TotalDD[i] = sim.TotalDD[i].Add(s.MaxDD)
			r.Scenarios = append(r.Scenarios, s)
		}
		sim.Rows = append(sim.Rows, r)
	}

	return sim
}

// reportEstimate runs the grid estimator for a report's .set file, or nil
// when the output dir has none.
func reportEstimate(run *Run, rep *Report, log *slog.Logger) *GridEstimate {
	path := filepath.Join(run.OutputDir, SetsDir, rep.BaseName()+".set")
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	est, err := EstimateGrid(GridOptions{SetPath: path, OutputDir: run.OutputDir}, log)
	if err != nil {
		log.Warn("grid estimate unavailable", "set", path, "error", err)
		return nil
	}
	return est
}
