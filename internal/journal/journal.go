// Package journal keeps a history of analysis runs in a single-file SQLite
// database, so runs over the same report corpus can be compared over time
// without keeping every output directory around.
package journal

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/csvk/MT5Enhance/internal/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	recorded_at DATETIME NOT NULL,
	output_dir TEXT NOT NULL,
	base_capital TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	included_reports INTEGER NOT NULL,
	total_reports INTEGER NOT NULL,
	final_balance TEXT NOT NULL,
	total_profit TEXT NOT NULL,
	max_drawdown_abs TEXT NOT NULL,
	max_drawdown_pct TEXT NOT NULL,
	conservative_dd TEXT NOT NULL,
	conservative_day TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_recorded_at ON runs(recorded_at);
`

// Entry is one recorded analysis run. ULID ids sort by creation time, so id
// order and recorded_at order agree.
type Entry struct {
	ID              string
	RecordedAt      time.Time
	OutputDir       string
	BaseCapital     decimal.Decimal
	Start           string
	End             string
	IncludedReports int
	TotalReports    int
	FinalBalance    decimal.Decimal
	TotalProfit     decimal.Decimal
	MaxDrawdownAbs  decimal.Decimal
	MaxDrawdownPct  decimal.Decimal
	ConservativeDD  decimal.Decimal
	ConservativeDay string
}

// Journal is the run history store. Monetary columns are stored as decimal
// strings; SQLite REAL would round-trip them through float64.
type Journal struct {
	db  *sql.DB
	rnd *ulid.MonotonicEntropy
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare journal schema: %w", err)
	}

	return &Journal{
		db:  db,
		rnd: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// Record appends a completed run and returns its assigned id.
func (j *Journal) Record(run *analysis.Run, now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now.UTC()), j.rnd)
	if err != nil {
		return "", fmt.Errorf("failed to allocate run id: %w", err)
	}

	_, err = j.db.Exec(`
		INSERT INTO runs
		(id, recorded_at, output_dir, base_capital, start_date, end_date,
		 included_reports, total_reports, final_balance, total_profit,
		 max_drawdown_abs, max_drawdown_pct, conservative_dd, conservative_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), now.UTC(), run.OutputDir, run.BaseCapital.String(),
		run.Start, run.End, run.IncludedReports, run.TotalReports,
		run.FinalBalance.String(), run.TotalProfit.String(),
		run.MaxDrawdownAbs.String(), run.MaxDrawdownPct.String(),
		run.ConservativeDD.String(), run.ConservativeDay,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return id.String(), nil
}

// List returns recorded runs, newest first.
func (j *Journal) List() ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, recorded_at, output_dir, base_capital, start_date, end_date,
		       included_reports, total_reports, final_balance, total_profit,
		       max_drawdown_abs, max_drawdown_pct, conservative_dd, conservative_day
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var base, balance, profit, ddAbs, ddPct, consDD string
		if err := rows.Scan(&e.ID, &e.RecordedAt, &e.OutputDir, &base, &e.Start, &e.End,
			&e.IncludedReports, &e.TotalReports, &balance, &profit,
			&ddAbs, &ddPct, &consDD, &e.ConservativeDay); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if e.BaseCapital, err = decimal.NewFromString(base); err != nil {
			return nil, fmt.Errorf("corrupt base_capital for run %s: %w", e.ID, err)
		}
		if e.FinalBalance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("corrupt final_balance for run %s: %w", e.ID, err)
		}
		if e.TotalProfit, err = decimal.NewFromString(profit); err != nil {
			return nil, fmt.Errorf("corrupt total_profit for run %s: %w", e.ID, err)
		}
		if e.MaxDrawdownAbs, err = decimal.NewFromString(ddAbs); err != nil {
			return nil, fmt.Errorf("corrupt max_drawdown_abs for run %s: %w", e.ID, err)
		}
		if e.MaxDrawdownPct, err = decimal.NewFromString(ddPct); err != nil {
			return nil, fmt.Errorf("corrupt max_drawdown_pct for run %s: %w", e.ID, err)
		}
		if e.ConservativeDD, err = decimal.NewFromString(consDD); err != nil {
			return nil, fmt.Errorf("corrupt conservative_dd for run %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
