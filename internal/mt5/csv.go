package mt5

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TradeColumns is the column set of the per-report trade CSVs this tool
// writes: the statement's own columns plus the classifier annotations.
var TradeColumns = []string{
	"Time", "Deal", "Symbol", "Type", "Direction", "Volume", "Price",
	"Order", "Commission", "Swap", "Profit", "Balance", "Comment",
	"SequenceNumber", "TradeNumberInSequence",
}

// ReadTradesCSV reads back an all_trades CSV written by this tool. The grid
// estimator uses it for observed entry prices.
func ReadTradesCSV(path string) ([]TradeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trades csv: %w", err)
	}
	defer f.Close()

	rows, err := parseTradesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trades csv %s: %w", path, err)
	}

	return rows, nil
}

func parseTradesCSV(r io.Reader) ([]TradeRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header: %w", err)
	}

	cols := map[string]int{}
	for i, c := range header {
		cols[normalize(c)] = i
	}
	if _, ok := cols["time"]; !ok {
		return nil, fmt.Errorf("no Time column in header %v", header)
	}

	var rows []TradeRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row, err := parseTradeRecord(rec, cols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseTradeRecord(rec []string, cols map[string]int) (TradeRow, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	t, err := parseTradeTime(cell("time"))
	if err != nil {
		return TradeRow{}, fmt.Errorf("bad Time %q: %w", cell("time"), err)
	}

	row := TradeRow{Deal: Deal{
		Time:      t,
		Ticket:    cell("deal"),
		Symbol:    cell("symbol"),
		Type:      ParseDealType(cell("type")),
		Direction: ParseDirection(cell("direction")),
		Order:     cell("order"),
		Comment:   cell("comment"),
	}}

	numeric := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"volume", &row.Volume},
		{"price", &row.Price},
		{"commission", &row.Commission},
		{"swap", &row.Swap},
		{"profit", &row.Profit},
		{"balance", &row.Balance},
	}
	for _, n := range numeric {
		v, err := parseCellDecimal(cell(n.name))
		if err != nil {
			return TradeRow{}, fmt.Errorf("bad %s %q: %w", n.name, cell(n.name), err)
		}
		*n.dst = v
	}

	row.Sequence, err = atoiCell(cell("sequencenumber"))
	if err != nil {
		return TradeRow{}, fmt.Errorf("bad SequenceNumber %q: %w", cell("sequencenumber"), err)
	}
	row.EntryIndex, err = atoiCell(cell("tradenumberinsequence"))
	if err != nil {
		return TradeRow{}, fmt.Errorf("bad TradeNumberInSequence %q: %w", cell("tradenumberinsequence"), err)
	}

	return row, nil
}

func parseTradeTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

// atoiCell parses an annotation cell; annotations are blank for rows outside
// any sequence.
func atoiCell(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
