package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/csvk/MT5Enhance/internal/grid"
	"github.com/csvk/MT5Enhance/internal/mt5"
)

// GridOptions configure one theoretical drawdown estimate.
type GridOptions struct {
	SetPath   string
	OutputDir string
	Date      time.Time // target day; zero auto-detects the widest-gap day
	Lot       float64   // starting lot override
	PipGap    float64   // target-day pip step override
}

// GridEstimate couples a computed estimate with the resolved inputs the
// command echoes back.
type GridEstimate struct {
	SetName   string
	Symbol    string
	TargetDay time.Time
	AutoDay   bool
	Estimate  *grid.Estimate
}

// symbolToken matches a currency pair embedded in a file name. Upper-case
// only: mixed-case words like an EA name must not match.
var symbolToken = regexp.MustCompile(`[A-Z]{6}`)

// EstimateGrid runs the theoretical drawdown estimator for one .set file,
// resolving the symbol, observed pip gaps and FX factor from the output
// directory's artifacts.
func EstimateGrid(opts GridOptions, log *slog.Logger) (*GridEstimate, error) {
	set, err := mt5.ReadSetFile(opts.SetPath)
	if err != nil {
		return nil, err
	}
	p := grid.ParamsFromSet(set)
	if opts.Lot > 0 {
		p.LotSize = opts.Lot
	}

	base := strings.TrimSuffix(filepath.Base(opts.SetPath), filepath.Ext(opts.SetPath))
	rows := observedRows(opts.OutputDir, base, log)
	symbol := resolveSymbol(rows, base, opts.OutputDir, log)
	point := grid.PointSize(symbol)

	globalStep, haveGlobal := grid.GlobalMeanGap(rows, point)
	if !haveGlobal {
		if p.PipStep < 0 {
			return nil, fmt.Errorf("PipStep %.2f needs observed entry gaps and %s has none", p.PipStep, base)
		}
		globalStep = p.PipStep
	}

	day := opts.Date
	if day.IsZero() {
		auto, ok := grid.AutoTargetDay(rows, p.PipStep, point)
		if !ok {
			return nil, fmt.Errorf("no target day: %s has no entries to detect one from (pass --date)", base)
		}
		day = auto
		log.Info("auto-detected target day", "set", base, "day", day.Format(DateLayout))
	}

	dayStep := p.PipStep
	switch {
	case opts.PipGap > 0:
		dayStep = opts.PipGap
		log.Info("using pip gap override", "set", base, "gap", dayStep)
	case p.PipStep < 0:
		if g, ok := grid.DayMeanGap(rows, day, point); ok {
			dayStep = g
		} else {
			log.Warn("no multi-entry sequences on target day, falling back to global mean",
				"set", base, "day", day.Format(DateLayout), "gap", globalStep)
			dayStep = globalStep
		}
	}

	rates := mt5.NewRates(filepath.Join(opts.OutputDir, PricesDir), log)
	fx := rates.USDFactor(symbol, day).InexactFloat64()

	est, err := grid.Compute(p, point, fx, dayStep, globalStep)
	if err != nil {
		return nil, err
	}

	return &GridEstimate{
		SetName:   base,
		Symbol:    symbol,
		TargetDay: day,
		AutoDay:   opts.Date.IsZero(),
		Estimate:  est,
	}, nil
}

// observedRows loads the report's annotated trade CSV when the output dir
// carries one. The estimator degrades to configured parameters without it.
func observedRows(dir, base string, log *slog.Logger) []mt5.TradeRow {
	path := filepath.Join(dir, TradesDir, "all_trades_"+base+".csv")
	rows, err := mt5.ReadTradesCSV(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to read trades csv", "path", path, "error", err)
		}
		return nil
	}
	return rows
}

// resolveSymbol finds the traded symbol for a set file: from the annotated
// trade rows, then the matching statement in the manifest, then a currency
// pair token in the name, defaulting to EURUSD.
func resolveSymbol(rows []mt5.TradeRow, base, dir string, log *slog.Logger) string {
	for _, r := range rows {
		if r.Symbol != "" {
			return r.Symbol
		}
	}

	entries, err := mt5.ReadManifest(filepath.Join(dir, ManifestFile))
	if err == nil {
		for _, e := range entries {
			name := filepath.Base(e.Path)
			if strings.TrimSuffix(name, filepath.Ext(name)) != base {
				continue
			}
			stmt, err := mt5.ReadStatement(e.Path, log)
			if err != nil {
				log.Warn("failed to read statement for symbol lookup", "path", e.Path, "error", err)
				break
			}
			if stmt.Symbol != "" {
				return stmt.Symbol
			}
			break
		}
	}

	if tok := symbolToken.FindString(base); tok != "" {
		return tok
	}

	log.Warn("could not determine symbol, assuming EURUSD", "set", base)
	return "EURUSD"
}
