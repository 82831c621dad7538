package mt5

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var rateDateLayouts = []string{"2006-01-02", "2006.01.02", "01/02/2006"}

// priceColumns is the preference order for the value column of a rate table.
var priceColumns = []string{"price", "close", "adj close"}

// RateTable holds one pair's daily closing prices, sorted by date.
type RateTable struct {
	dates  []time.Time
	prices []decimal.Decimal
}

// ReadRateTable reads a prices/<PAIR>.csv table: a Date column plus one of
// Price, Close or Adj Close.
func ReadRateTable(path string) (*RateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate table: %w", err)
	}
	defer f.Close()

	t, err := parseRateTable(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate table %s: %w", path, err)
	}

	return t, nil
}

func parseRateTable(r io.Reader) (*RateTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header: %w", err)
	}

	dateCol, priceCol := -1, -1
	for i, c := range header {
		if normalize(c) == "date" {
			dateCol = i
		}
	}
	for _, want := range priceColumns {
		for i, c := range header {
			if normalize(c) == want {
				priceCol = i
				break
			}
		}
		if priceCol >= 0 {
			break
		}
	}
	if dateCol < 0 || priceCol < 0 {
		return nil, fmt.Errorf("no Date/Price columns in header %v", header)
	}

	t := &RateTable{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if dateCol >= len(rec) || priceCol >= len(rec) {
			continue
		}

		day, ok := parseRateDate(rec[dateCol])
		if !ok {
			continue
		}
		price, err := parseCellDecimal(rec[priceCol])
		if err != nil || price.IsZero() {
			continue
		}

		t.dates = append(t.dates, day)
		t.prices = append(t.prices, price)
	}

	sort.Sort(byRateDate{t})
	return t, nil
}

func parseRateDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range rateDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

type byRateDate struct{ t *RateTable }

func (b byRateDate) Len() int           { return len(b.t.dates) }
func (b byRateDate) Less(i, j int) bool { return b.t.dates[i].Before(b.t.dates[j]) }
func (b byRateDate) Swap(i, j int) {
	b.t.dates[i], b.t.dates[j] = b.t.dates[j], b.t.dates[i]
	b.t.prices[i], b.t.prices[j] = b.t.prices[j], b.t.prices[i]
}

// At returns the price at the nearest date at or before day.
func (t *RateTable) At(day time.Time) (decimal.Decimal, bool) {
	i := sort.Search(len(t.dates), func(i int) bool {
		return t.dates[i].After(day)
	})
	if i == 0 {
		return decimal.Decimal{}, false
	}
	return t.prices[i-1], true
}

// Rates resolves USD conversion factors from a directory of daily FX tables.
// Tables are loaded lazily and cached; a missing table falls back to 1.0.
type Rates struct {
	dir   string
	log   *slog.Logger
	cache map[string]*RateTable
}

func NewRates(dir string, log *slog.Logger) *Rates {
	return &Rates{dir: dir, log: log, cache: map[string]*RateTable{}}
}

var symbolPrefix = regexp.MustCompile(`^[A-Za-z]{6}`)

// QuoteCurrency extracts the quote currency from an MT5 symbol name,
// tolerating broker suffixes ("EURUSD.m", "GBPJPY_i").
func QuoteCurrency(symbol string) string {
	clean, _, _ := strings.Cut(symbol, ".")
	clean, _, _ = strings.Cut(clean, "_")
	if len(clean) < 6 {
		m := symbolPrefix.FindString(symbol)
		if m == "" {
			return ""
		}
		clean = m
	}
	return strings.ToUpper(clean)[3:]
}

// USDFactor converts one quote-currency unit into USD on the given day.
// USD-quoted symbols are 1.0; otherwise the USD<q> table is tried inverted,
// then <q>USD directly; with no usable table the factor defaults to 1.0.
func (r *Rates) USDFactor(symbol string, day time.Time) decimal.Decimal {
	one := decimal.NewFromInt(1)

	quote := QuoteCurrency(symbol)
	if quote == "" || quote == "USD" {
		return one
	}

	if price, ok := r.lookup("USD"+quote, day); ok {
		return one.Div(price)
	}
	if price, ok := r.lookup(quote+"USD", day); ok {
		return price
	}

	r.log.Warn("no FX table for quote currency, assuming 1.0", "symbol", symbol, "quote", quote)
	return one
}

func (r *Rates) lookup(pair string, day time.Time) (decimal.Decimal, bool) {
	t, ok := r.cache[pair]
	if !ok {
		path := filepath.Join(r.dir, pair+".csv")
		if _, err := os.Stat(path); err != nil {
			r.cache[pair] = nil
			return decimal.Decimal{}, false
		}

		var err error
		t, err = ReadRateTable(path)
		if err != nil {
			r.log.Warn("skipping unreadable rate table", "pair", pair, "error", err)
			t = nil
		}
		r.cache[pair] = t
	}

	if t == nil {
		return decimal.Decimal{}, false
	}
	return t.At(day)
}
