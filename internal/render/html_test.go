package render

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csvk/MT5Enhance/internal/analysis"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	return New(Options{OutputDir: t.TempDir()}, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestGradient(t *testing.T) {
	min, max := dec("-100"), dec("200")

	tbl := []struct {
		value string
		want  string
	}{
		{value: "0", want: "#ffffff"},
		{value: "200", want: "#22c55e"},  // full scale gain
		{value: "-100", want: "#ef4444"}, // full scale loss
		{value: "500", want: "#22c55e"},  // clamped
	}
	for _, tc := range tbl {
		assert.Equal(t, tc.want, gradient(dec(tc.value), min, max), "value %s", tc.value)
	}

	// halfway toward green stays between white and the endpoint
	mid := gradient(dec("100"), min, max)
	assert.NotEqual(t, "#ffffff", mid)
	assert.NotEqual(t, "#22c55e", mid)
}

func TestGradient_zeroScale(t *testing.T) {
	// all-loss table: a positive value has no gain extreme to scale against
	assert.Equal(t, "#22c55e", gradient(dec("5"), dec("-10"), dec("0")))
}

func testRun() *analysis.Run {
	return &analysis.Run{
		OutputDir:       "out",
		BaseCapital:     dec("100000"),
		Start:           "2023-01-01",
		End:             "2023-02-01",
		IncludedReports: 1,
		TotalReports:    2,
		FinalBalance:    dec("100250"),
		TotalProfit:     dec("250"),
		MaxDrawdownAbs:  dec("-250"),
		MaxDrawdownPct:  dec("-0.0025"),
		ConservativeDD:  dec("-400"),
		ConservativeDay: "2023-01-10",
		Excluded:        []string{"skipped.htm"},
		Monthly: &analysis.MonthlyTable{
			Months:      []string{"2023-01"},
			Rows:        []analysis.MonthlyRow{{Symbol: "EURUSD", Report: "a.htm", Values: []decimal.Decimal{dec("250")}, Total: dec("250")}},
			MonthTotals: []decimal.Decimal{dec("250")},
			GrandTotal:  dec("250"),
		},
		Reports: []analysis.Report{
			{
				Name:           "a.htm",
				Path:           "/tmp/a.htm",
				Symbol:         "EURUSD",
				Include:        true,
				Status:         analysis.StatusIncluded,
				TotalPnL:       dec("250"),
				SelectedPnL:    dec("250"),
				MaxDrawdownAbs: dec("-250"),
				MaxDrawdownPct: dec("-0.0025"),
				MaxTrades:      3,
				MaxTradesDate:  "2023-01-05",
				BuyTrades:      4,
				SellTrades:     0,
				InitialLot:     dec("0.01"),
				Histogram:      []analysis.HistogramBin{{Length: 3, Count: 1, TotalPnL: dec("250")}},
			},
			{
				Name:    "skipped.htm",
				Path:    "/tmp/skipped.htm",
				Include: false,
				Status:  analysis.StatusSkipped,
				Reason:  analysis.ReasonManual,
			},
		},
	}
}

func TestWriteAnalysisHTML(t *testing.T) {
	r := testRenderer(t)
	run := testRun()

	require.NoError(t, r.WriteAnalysisHTML(run))

	data, err := os.ReadFile(filepath.Join(r.opts.OutputDir, AnalysisHTMLFile))
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<strong>Period:</strong> 2023-01-01 to 2023-02-01")
	assert.Contains(t, html, "<strong>Included Reports:</strong> 1 / 2")
	assert.Contains(t, html, "<strong>Base Capital:</strong> 100,000.00")
	assert.Contains(t, html, "<strong>Conservative Daily Drawdown:</strong> -400.00 (worst day 2023-01-10)")
	assert.Contains(t, html, "Monthly Contributor Breakdown")
	assert.Contains(t, html, "class='status-included'")
	assert.Contains(t, html, "(Manual (Include=0))")
	assert.Contains(t, html, "<strong>Max Drawdown</strong>: -250.00 (-0.25%)")
	assert.Contains(t, html, "Explicitly Excluded Reports")
	// no charts were drawn into this output dir
	assert.NotContains(t, html, "Portfolio_Overview.png")
}

func TestWriteAnalysisHTML_identicalBytes(t *testing.T) {
	r := testRenderer(t)

	require.NoError(t, r.WriteAnalysisHTML(testRun()))
	first, err := os.ReadFile(filepath.Join(r.opts.OutputDir, AnalysisHTMLFile))
	require.NoError(t, err)

	require.NoError(t, r.WriteAnalysisHTML(testRun()))
	second, err := os.ReadFile(filepath.Join(r.opts.OutputDir, AnalysisHTMLFile))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWriteSimulationHTML(t *testing.T) {
	r := testRenderer(t)
	sim := &analysis.Simulation{
		Lots: []float64{0.01, 0.02},
		Rows: []analysis.SimRow{{
			Symbol:     "EURUSD",
			Name:       "a.htm",
			Path:       "/tmp/a.htm",
			MaxTrades:  3,
			MaxGap:     12.5,
			InitialLot: dec("0.01"),
			Scenarios: []analysis.LotScenario{
				{Lot: 0.01, PnL: dec("250"), MaxDD: dec("-250"), HasGap: true, Gap: 80.5, Level: "L7-8"},
				{Lot: 0.02, PnL: dec("500"), MaxDD: dec("-500")},
			},
		}},
		TotalPnL: []decimal.Decimal{dec("250"), dec("500")},
		TotalDD:  []decimal.Decimal{dec("-250"), dec("-500")},
	}

	require.NoError(t, r.WriteSimulationHTML(sim))

	data, err := os.ReadFile(filepath.Join(r.opts.OutputDir, SimulationHTMLFile))
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "Lot 0.01")
	assert.Contains(t, html, "L7-8")
	assert.Contains(t, html, "<td>12.5</td>")
	// the second scenario found no threshold
	assert.Contains(t, html, "N/A")
	assert.Contains(t, html, "<b>TOTAL</b>")
}

func TestWriteComparisonHTML(t *testing.T) {
	r := testRenderer(t)
	run := testRun()
	run.Reports[1].Name = "a_ld1.htm"
	c := analysis.Compare(run)
	require.Len(t, c.Families, 1)

	require.NoError(t, r.WriteComparisonHTML(c))

	data, err := os.ReadFile(filepath.Join(r.opts.OutputDir, ComparisonHTMLFile))
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<th>Original</th>")
	assert.Contains(t, html, "<th>ld1</th>")
	assert.Contains(t, html, "class='base-name'>a</td>")
	assert.Contains(t, html, "B/S: 4/0")
}
