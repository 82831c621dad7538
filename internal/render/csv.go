package render

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/csvk/MT5Enhance/internal/analysis"
	"github.com/csvk/MT5Enhance/internal/mt5"
)

// selectedColumns is the column set of the per-symbol selected trade CSVs:
// the statement columns plus the source report and entry index. The
// batch-wide sequence number is dropped; it is meaningless across reports.
var selectedColumns = []string{
	"Time", "Deal", "Symbol", "Type", "Direction", "Volume", "Price",
	"Order", "Commission", "Swap", "Profit", "Balance", "Comment",
	"SourceFile", "TradeNumberInSequence",
}

// WriteTrades refreshes the Trades directory and writes every parsed
// report's all_trades CSV plus the per-symbol selected trade CSVs. base
// seeds the selected CSVs' replayed balance column.
func (r *Renderer) WriteTrades(batch *analysis.Batch, base decimal.Decimal) error {
	dir, err := r.refreshDir(analysis.TradesDir)
	if err != nil {
		return err
	}

	n := 0
	for _, d := range batch.Reports {
		if !d.Processed || d.ParseErr != nil {
			continue
		}
		if err := writeAllTrades(filepath.Join(dir, "all_trades_"+d.Base+".csv"), d.Rows); err != nil {
			return err
		}
		n++
	}

	selected := selectedBySymbol(batch)
	symbols := make([]string, 0, len(selected))
	for s := range selected {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, s := range symbols {
		path := filepath.Join(dir, "selected_trades_"+s+".csv")
		if err := writeSelectedTrades(path, selected[s], base); err != nil {
			return err
		}
	}

	r.log.Info("trade tables written", "reports", n, "symbols", len(symbols))
	return nil
}

func writeAllTrades(path string, rows []mt5.TradeRow) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trades csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(mt5.TradeColumns); err != nil {
		return fmt.Errorf("failed to write trades csv: %w", err)
	}
	for _, row := range rows {
		rec := append(dealCells(row.Deal, row.Balance),
			intCell(row.Sequence), intCell(row.EntryIndex))
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write trades csv: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// selectedRow is one accepted deal row tagged with the report it came from.
type selectedRow struct {
	mt5.TradeRow
	Source string
}

// selectedBySymbol gathers the annotated rows of every accepted sequence,
// grouped by symbol and sorted by time within each group.
func selectedBySymbol(batch *analysis.Batch) map[string][]selectedRow {
	ids := map[string]map[int]bool{}
	for _, s := range batch.Selection.Accepted {
		m := ids[s.Report]
		if m == nil {
			m = map[int]bool{}
			ids[s.Report] = m
		}
		m[s.ID] = true
	}

	out := map[string][]selectedRow{}
	for _, d := range batch.Reports {
		accepted := ids[d.Name]
		if len(accepted) == 0 {
			continue
		}
		for _, row := range d.Rows {
			if row.Sequence == 0 || !accepted[row.Sequence] {
				continue
			}
			symbol := row.Symbol
			if symbol == "" {
				symbol = d.Symbol
			}
			out[symbol] = append(out[symbol], selectedRow{TradeRow: row, Source: d.Name})
		}
	}

	for _, rows := range out {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	}
	return out
}

// writeSelectedTrades writes one symbol's accepted rows with the balance
// column replayed from base capital: entries carry the running balance
// unchanged, exits add their net profit first.
func writeSelectedTrades(path string, rows []selectedRow, base decimal.Decimal) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create selected trades csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(selectedColumns); err != nil {
		return fmt.Errorf("failed to write selected trades csv: %w", err)
	}

	balance := base
	for _, row := range rows {
		if row.IsExit() {
			balance = balance.Add(row.NetPnL())
		}
		rec := append(dealCells(row.Deal, balance), row.Source, intCell(row.EntryIndex))
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write selected trades csv: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// dealCells renders the thirteen statement columns, with the balance column
// value supplied by the caller.
func dealCells(d mt5.Deal, balance decimal.Decimal) []string {
	return []string{
		timeCell(d.Time),
		d.Ticket,
		d.Symbol,
		d.Type.String(),
		d.Direction.String(),
		d.Volume.String(),
		d.Price.String(),
		d.Order,
		d.Commission.String(),
		d.Swap.String(),
		d.Profit.String(),
		balance.String(),
		d.Comment,
	}
}

func timeCell(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func intCell(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}
