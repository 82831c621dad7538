package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/csvk/MT5Enhance/internal/portfolio"
	"github.com/shopspring/decimal"
)

// SummaryFile is the machine-readable mirror of the HTML report, written
// into the output directory by every analysis run.
const SummaryFile = "summary.json"

// ManifestFile lists the statement files of an output directory.
const ManifestFile = "report_list.csv"

// DateLayout renders period bounds and per-day figures.
const DateLayout = "2006-01-02"

// MonthLayout renders breakdown months as column headers.
const MonthLayout = "2006-01"

// Report statuses as they appear in the rendered report.
const (
	StatusIncluded = "Included"
	StatusSkipped  = "Skipped"
	StatusPartial  = "Partially Included"
)

// Skip reasons. Included and partially included reports carry none.
const (
	ReasonManual     = "Manual (Include=0)"
	ReasonOverlap    = "Overlapping trades"
	ReasonDateRange  = "Date range"
	ReasonUnreadable = "File could not be parsed or has no trades"
)

// Run is the result of one analysis batch. It carries everything the
// downstream commands (simulate, compare, filter, history) need, so they
// read this instead of scraping the rendered HTML. Field order is fixed;
// identical inputs serialize to identical bytes.
type Run struct {
	OutputDir       string          `json:"output_dir"`
	BaseCapital     decimal.Decimal `json:"base_capital"`
	Start           string          `json:"start"`
	End             string          `json:"end"`
	IncludedReports int             `json:"included_reports"`
	TotalReports    int             `json:"total_reports"`
	FinalBalance    decimal.Decimal `json:"final_balance"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	MaxDrawdownAbs  decimal.Decimal `json:"max_drawdown_abs"`
	MaxDrawdownPct  decimal.Decimal `json:"max_drawdown_pct"`
	ConservativeDD  decimal.Decimal `json:"conservative_daily_drawdown"`
	ConservativeDay string          `json:"conservative_daily_date,omitempty"`
	Excluded        []string        `json:"excluded,omitempty"`
	Overlapping     []string        `json:"overlapping,omitempty"`
	Monthly         *MonthlyTable   `json:"monthly,omitempty"`
	Reports         []Report        `json:"reports"`
}

// Report is the per-manifest-entry slice of a Run, in manifest order.
// The drawdown and recovery figures describe the report's own standalone
// curve over its full data range; SelectedPnL is what the report actually
// contributed to the portfolio window.
type Report struct {
	Name           string          `json:"name"`
	Path           string          `json:"path"`
	Symbol         string          `json:"symbol,omitempty"`
	Include        bool            `json:"include"`
	Status         string          `json:"status"`
	Reason         string          `json:"reason,omitempty"`
	TotalPnL       decimal.Decimal `json:"total_pnl"`
	SelectedPnL    decimal.Decimal `json:"selected_pnl"`
	MaxDrawdownAbs decimal.Decimal `json:"max_drawdown_abs"`
	MaxDrawdownPct decimal.Decimal `json:"max_drawdown_pct"`
	MaxTrades      int             `json:"max_trades"`
	MaxTradesDate  string          `json:"max_trades_date,omitempty"`
	MaxTradesGap   float64         `json:"max_trades_gap,omitempty"`
	RecoveryFactor decimal.Decimal `json:"recovery_factor"`
	BuyTrades      int             `json:"buy_trades"`
	SellTrades     int             `json:"sell_trades"`
	InitialLot     decimal.Decimal `json:"initial_lot"`
	Params         *SetParams      `json:"set_params,omitempty"`
	Histogram      []HistogramBin  `json:"histogram,omitempty"`
}

// BaseName is the report name without its extension. The .set file, the
// trades CSV and the per-report chart all derive their names from it.
func (r *Report) BaseName() string {
	return strings.TrimSuffix(r.Name, filepath.Ext(r.Name))
}

// SetParams are the expert-advisor inputs read from the report's .set file,
// kept as written for display.
type SetParams struct {
	LotSize            string `json:"lot_size,omitempty"`
	StopLoss           string `json:"stop_loss,omitempty"`
	MaxLots            string `json:"max_lots,omitempty"`
	LotSizeExponent    string `json:"lot_size_exponent,omitempty"`
	DelayTradeSequence string `json:"delay_trade_sequence,omitempty"`
	LiveDelay          string `json:"live_delay,omitempty"`
}

// HistogramBin is one row of a report's sequence-depth histogram: how many
// sequences reached exactly Length entries and what they netted together.
// Unterminated sequences count too; their depth was real exposure.
type HistogramBin struct {
	Length   int             `json:"length"`
	Count    int             `json:"count"`
	TotalPnL decimal.Decimal `json:"total_pnl"`
}

// MonthlyTable mirrors the monthly contributor breakdown into the summary.
type MonthlyTable struct {
	Months      []string          `json:"months"`
	Rows        []MonthlyRow      `json:"rows"`
	MonthTotals []decimal.Decimal `json:"month_totals"`
	GrandTotal  decimal.Decimal   `json:"grand_total"`
}

// MonthlyRow is one (symbol, report) contributor with its profit per month,
// aligned to MonthlyTable.Months.
type MonthlyRow struct {
	Symbol string            `json:"symbol"`
	Report string            `json:"report"`
	Values []decimal.Decimal `json:"values"`
	Total  decimal.Decimal   `json:"total"`
}

func newMonthlyTable(b portfolio.Breakdown) *MonthlyTable {
	if len(b.Rows) == 0 {
		return nil
	}

	t := &MonthlyTable{MonthTotals: b.MonthTotals, GrandTotal: b.GrandTotal}
	for _, m := range b.Months {
		t.Months = append(t.Months, m.Format(MonthLayout))
	}
	for _, r := range b.Rows {
		t.Rows = append(t.Rows, MonthlyRow{Symbol: r.Symbol, Report: r.Report, Values: r.Values, Total: r.Total})
	}
	return t
}

// Write emits the run as indented JSON.
func (r *Run) Write(w io.Writer) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(r); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}

func (r *Run) WriteToFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return r.Write(f)
}

// ReadRun loads the summary.json of a previous analysis run.
func ReadRun(path string) (*Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary: %w", err)
	}
	defer f.Close()

	var run Run
	if err := json.NewDecoder(f).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to parse summary %s: %w", path, err)
	}
	return &run, nil
}
