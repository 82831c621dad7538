package mt5

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
)

// TimeLayout is the timestamp format MT5 writes into statements. CSV
// artifacts are emitted with ISO dashes instead; the trades CSV reader
// accepts both.
const TimeLayout = "2006.01.02 15:04:05"

// statementColumns is the canonical column order of the deals table, used as
// a fallback when a report carries no recognizable header row.
var statementColumns = []string{
	"time", "deal", "symbol", "type", "direction", "volume", "price",
	"order", "commission", "swap", "profit", "balance", "comment",
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ReadStatement loads an MT5 strategy tester statement from disk. Statements
// are UTF-16LE HTML; the deals table is the second table in the document.
// Rows with a malformed timestamp are dropped with a warning.
func ReadStatement(path string, log *slog.Logger) (*Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}

	html, err := decodeStatement(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode statement %s: %w", path, err)
	}

	st, err := parseStatement(bytes.NewReader(html), filepath.Base(path), log)
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement %s: %w", path, err)
	}

	st.Path = path
	return st, nil
}

// decodeStatement converts the raw statement bytes to UTF-8. MT5 writes
// UTF-16LE with a BOM; files without a BOM are passed through unchanged.
func decodeStatement(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return data, nil
	}

	le := data[0] == 0xff && data[1] == 0xfe
	be := data[0] == 0xfe && data[1] == 0xff
	if !le && !be {
		return data, nil
	}

	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("utf-16 decode failed: %w", err)
	}

	return out, nil
}

func parseStatement(r *bytes.Reader, name string, log *slog.Logger) (*Statement, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid html: %w", err)
	}

	tables := doc.Find("table")
	if tables.Length() < 2 {
		return nil, fmt.Errorf("expected orders and deals tables, found %d", tables.Length())
	}

	st := &Statement{
		Name:   name,
		Symbol: findSymbol(tables.First()),
	}

	cols := map[string]int{}
	tables.Eq(1).Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := rowCells(row)
		if len(cols) == 0 {
			if hdr := headerColumns(cells); hdr != nil {
				cols = hdr
				return
			}
			// Some reports start the body without a header row.
			cols = positionalColumns()
		}

		d, ok := parseDealRow(cells, cols, name, log)
		if !ok {
			return
		}
		if d.Direction == DirNone && d.Type != TypeBalance {
			return
		}
		st.Deals = append(st.Deals, d)
	})

	sort.SliceStable(st.Deals, func(i, j int) bool {
		return st.Deals[i].Time.Before(st.Deals[j].Time)
	})

	return st, nil
}

// findSymbol scans the statement's summary table for the "Symbol:"
// label and returns the bare symbol from the cell after it. MT5 writes the
// value as "EURUSD (Euro vs US Dollar)".
func findSymbol(summary *goquery.Selection) string {
	var cells []string
	summary.Find("td,th").Each(func(_ int, c *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(c.Text()))
	})

	for i, c := range cells {
		if !strings.HasPrefix(normalize(c), "symbol") {
			continue
		}
		if i+1 >= len(cells) {
			return ""
		}
		sym, _, _ := strings.Cut(cells[i+1], " ")
		return strings.ToUpper(strings.TrimSpace(sym))
	}

	return ""
}

func rowCells(row *goquery.Selection) []string {
	var cells []string
	row.Find("td,th").Each(func(_ int, c *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(c.Text()))
	})
	return cells
}

// headerColumns maps column names to indexes when the row is the deals table
// header, or returns nil when it is not.
func headerColumns(cells []string) map[string]int {
	idx := map[string]int{}
	for i, c := range cells {
		idx[normalize(c)] = i
	}
	if _, ok := idx["time"]; !ok {
		return nil
	}
	if _, ok := idx["direction"]; !ok {
		return nil
	}
	return idx
}

func positionalColumns() map[string]int {
	idx := make(map[string]int, len(statementColumns))
	for i, c := range statementColumns {
		idx[c] = i
	}
	return idx
}

func parseDealRow(cells []string, cols map[string]int, report string, log *slog.Logger) (Deal, bool) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(cells) {
			return ""
		}
		return cells[i]
	}

	if len(cells) < len(statementColumns) {
		return Deal{}, false
	}

	t, err := time.Parse(TimeLayout, cell("time"))
	if err != nil {
		log.Warn("dropping deal row with malformed time", "report", report, "time", cell("time"))
		return Deal{}, false
	}

	d := Deal{
		Time:      t,
		Ticket:    cell("deal"),
		Symbol:    strings.ToUpper(cell("symbol")),
		Type:      ParseDealType(cell("type")),
		Direction: ParseDirection(cell("direction")),
		Order:     cell("order"),
		Comment:   cell("comment"),
		Report:    report,
	}

	numeric := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"volume", &d.Volume},
		{"price", &d.Price},
		{"commission", &d.Commission},
		{"swap", &d.Swap},
		{"profit", &d.Profit},
		{"balance", &d.Balance},
	}
	for _, n := range numeric {
		v, err := parseCellDecimal(cell(n.name))
		if err != nil {
			log.Warn("dropping deal row with malformed number", "report", report, "column", n.name, "value", cell(n.name))
			return Deal{}, false
		}
		*n.dst = v
	}

	return d, true
}

// parseCellDecimal parses an MT5 numeric cell. Thousands are separated with
// plain or non-breaking spaces ("1 234.56"); empty cells mean zero.
func parseCellDecimal(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.NewFromString(s)
}
