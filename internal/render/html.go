package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/csvk/MT5Enhance/internal/analysis"
)

// Gradient endpoints for the monthly breakdown cells: full green for the
// largest gain, full red for the deepest loss, white at zero.
var (
	gainColor = [3]int{0x22, 0xc5, 0x5e}
	lossColor = [3]int{0xef, 0x44, 0x44}
)

// gradient blends white toward the gain or loss color by how far v sits
// between zero and the relevant extreme.
func gradient(v, min, max decimal.Decimal) string {
	f := v.InexactFloat64()
	switch {
	case f > 0:
		scale := max.InexactFloat64()
		if scale <= 0 {
			scale = 1
		}
		return blend(gainColor, f/scale)
	case f < 0:
		scale := min.Abs().InexactFloat64()
		if scale <= 0 {
			scale = 1
		}
		return blend(lossColor, -f/scale)
	default:
		return "#ffffff"
	}
}

func blend(c [3]int, alpha float64) string {
	if alpha > 1 {
		alpha = 1
	}
	ch := func(target int) int {
		return 255 - int(float64(255-target)*alpha)
	}
	return fmt.Sprintf("#%02x%02x%02x", ch(c[0]), ch(c[1]), ch(c[2]))
}

func statusClass(status string) string {
	switch status {
	case analysis.StatusIncluded:
		return "status-included"
	case analysis.StatusPartial:
		return "status-partial"
	default:
		return "status-skipped"
	}
}

// fileLink renders a file:// hyperlink for a report path, for opening the
// source statement straight from the document.
func fileLink(path string) string {
	return "file:///" + filepath.ToSlash(path)
}

func (r *Renderer) writeHTML(name string, tpl *template.Template, data any) (err error) {
	path := filepath.Join(r.opts.OutputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := tpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	r.log.Info("report written", "path", path)
	return nil
}

// cell is one colored table cell of the monthly breakdown.
type cell struct {
	Value string
	Color string
}

type monthlyView struct {
	Months []string
	Rows   []monthlyRowView
	Totals []cell
	Grand  cell
}

type monthlyRowView struct {
	Index  int
	Symbol string
	Report string
	Link   string
	Cells  []cell
	Total  cell
}

// newMonthlyView colors the breakdown: value cells against the global cell
// extremes, row totals against the row-total extremes, month totals against
// their own, per the original document.
func newMonthlyView(t *analysis.MonthlyTable, paths map[string]string) *monthlyView {
	if t == nil {
		return nil
	}

	var cellMin, cellMax, totalMin, totalMax, monthMin, monthMax decimal.Decimal
	for _, row := range t.Rows {
		for _, v := range row.Values {
			cellMin = decimal.Min(cellMin, v)
			cellMax = decimal.Max(cellMax, v)
		}
		totalMin = decimal.Min(totalMin, row.Total)
		totalMax = decimal.Max(totalMax, row.Total)
	}
	for _, v := range t.MonthTotals {
		monthMin = decimal.Min(monthMin, v)
		monthMax = decimal.Max(monthMax, v)
	}

	v := &monthlyView{Months: t.Months}
	for i, row := range t.Rows {
		rv := monthlyRowView{
			Index:  i + 1,
			Symbol: row.Symbol,
			Report: row.Report,
			Total:  cell{Value: plain(row.Total), Color: gradient(row.Total, totalMin, totalMax)},
		}
		if p, ok := paths[row.Report]; ok {
			rv.Link = fileLink(p)
		}
		for _, val := range row.Values {
			rv.Cells = append(rv.Cells, cell{Value: plain(val), Color: gradient(val, cellMin, cellMax)})
		}
		v.Rows = append(v.Rows, rv)
	}
	for _, val := range t.MonthTotals {
		v.Totals = append(v.Totals, cell{Value: plain(val), Color: gradient(val, monthMin, monthMax)})
	}
	v.Grand = cell{Value: plain(t.GrandTotal), Color: gradient(t.GrandTotal, t.GrandTotal, t.GrandTotal)}
	return v
}

type reportView struct {
	Index       int
	Name        string
	Link        string
	Status      string
	StatusClass string
	Reason      string
	HasMetrics  bool

	TotalPnL       string
	SelectedPnL    string
	MaxDrawdown    string
	RecoveryFactor string
	MaxTrades      int
	MaxTradesDate  string
	MaxTradesGap   string
	BuyTrades      int
	SellTrades     int

	Params     *analysis.SetParams
	InitialLot string
	ChartSrc   string
	Histogram  []histogramRowView
}

type histogramRowView struct {
	Length   int
	Count    int
	TotalPnL string
}

type analysisView struct {
	Period       string
	Included     int
	Total        int
	Base         string
	FinalBalance string
	TotalProfit  string
	MaxDrawdown  string
	HasConsDD    bool
	ConsDD       string
	ConsDay      string
	OverviewSrc  string
	Monthly      *monthlyView
	Excluded     []linkView
	Overlapping  []linkView
	Reports      []reportView
}

type linkView struct {
	Name string
	Link string
}

// WriteAnalysisHTML writes the Full_Analysis document for a completed run.
func (r *Renderer) WriteAnalysisHTML(run *analysis.Run) error {
	paths := map[string]string{}
	for _, rep := range run.Reports {
		paths[rep.Name] = rep.Path
	}

	v := analysisView{
		Period:       run.Start + " to " + run.End,
		Included:     run.IncludedReports,
		Total:        run.TotalReports,
		Base:         r.money(run.BaseCapital),
		FinalBalance: r.money(run.FinalBalance),
		TotalProfit:  r.money(run.TotalProfit),
		MaxDrawdown:  fmt.Sprintf("%s (%s%%)", r.money(run.MaxDrawdownAbs), run.MaxDrawdownPct.Mul(decimal.NewFromInt(100)).StringFixed(2)),
		OverviewSrc:  r.chartSrc(OverviewChartFile),
		Monthly:      newMonthlyView(run.Monthly, paths),
	}
	if run.ConservativeDay != "" {
		v.HasConsDD = true
		v.ConsDD = r.money(run.ConservativeDD)
		v.ConsDay = run.ConservativeDay
	}
	for _, name := range run.Excluded {
		v.Excluded = append(v.Excluded, linkView{Name: name, Link: fileLink(paths[name])})
	}
	for _, name := range run.Overlapping {
		v.Overlapping = append(v.Overlapping, linkView{Name: name, Link: fileLink(paths[name])})
	}

	for i, rep := range run.Reports {
		rv := reportView{
			Index:       i + 1,
			Name:        rep.BaseName(),
			Link:        fileLink(rep.Path),
			Status:      rep.Status,
			StatusClass: statusClass(rep.Status),
			Reason:      rep.Reason,
			HasMetrics:  rep.Status != analysis.StatusSkipped || rep.Reason == analysis.ReasonOverlap || rep.Reason == analysis.ReasonDateRange,
		}
		if rv.HasMetrics {
			rv.TotalPnL = r.money(rep.TotalPnL)
			rv.SelectedPnL = r.money(rep.SelectedPnL)
			rv.MaxDrawdown = fmt.Sprintf("%s (%s%%)", r.money(rep.MaxDrawdownAbs), rep.MaxDrawdownPct.Mul(decimal.NewFromInt(100)).StringFixed(2))
			rv.RecoveryFactor = rep.RecoveryFactor.StringFixed(2)
			rv.MaxTrades = rep.MaxTrades
			rv.MaxTradesDate = rep.MaxTradesDate
			if rep.MaxTradesGap > 0 {
				rv.MaxTradesGap = fmt.Sprintf("%.1f pips", rep.MaxTradesGap)
			}
			rv.BuyTrades = rep.BuyTrades
			rv.SellTrades = rep.SellTrades
			rv.Params = rep.Params
			rv.InitialLot = rep.InitialLot.String()
			rv.ChartSrc = r.chartSrc(ReportChartFile(rep.BaseName()))
			for _, bin := range rep.Histogram {
				rv.Histogram = append(rv.Histogram, histogramRowView{
					Length:   bin.Length,
					Count:    bin.Count,
					TotalPnL: plain(bin.TotalPnL),
				})
			}
		}
		v.Reports = append(v.Reports, rv)
	}

	return r.writeHTML(AnalysisHTMLFile, analysisTemplate, v)
}

type simCellView struct {
	PnL   string
	MaxDD string
	Gap   string
	Level string
}

type simRowView struct {
	Index      int
	Symbol     string
	Name       string
	Link       string
	MaxTrades  int
	MaxGap     string
	InitialLot string
	Cells      []simCellView
}

type simView struct {
	Lots     []string
	Rows     []simRowView
	TotalPnL []string
	TotalDD  []string
}

// WriteSimulationHTML writes the fixed-lot restatement table.
func (r *Renderer) WriteSimulationHTML(sim *analysis.Simulation) error {
	v := simView{}
	for _, lot := range sim.Lots {
		v.Lots = append(v.Lots, fmt.Sprintf("%.2f", lot))
	}
	for i, row := range sim.Rows {
		rv := simRowView{
			Index:      i + 1,
			Symbol:     row.Symbol,
			Name:       row.Name,
			Link:       fileLink(row.Path),
			MaxTrades:  row.MaxTrades,
			InitialLot: row.InitialLot.String(),
			MaxGap:     "N/A",
		}
		if row.MaxGap > 0 {
			rv.MaxGap = fmt.Sprintf("%.1f", row.MaxGap)
		}
		for _, s := range row.Scenarios {
			c := simCellView{PnL: plain(s.PnL), MaxDD: plain(s.MaxDD), Gap: "N/A", Level: "N/A"}
			if s.HasGap {
				c.Gap = fmt.Sprintf("%.1f", s.Gap)
				c.Level = s.Level
			}
			rv.Cells = append(rv.Cells, c)
		}
		v.Rows = append(v.Rows, rv)
	}
	for i := range sim.Lots {
		v.TotalPnL = append(v.TotalPnL, plain(sim.TotalPnL[i]))
		v.TotalDD = append(v.TotalDD, plain(sim.TotalDD[i]))
	}

	return r.writeHTML(SimulationHTMLFile, simTemplate, v)
}

type compareCellView struct {
	Present bool
	PnL     string
	MaxDD   string
	RF      string
	MaxT    int
	Buy     int
	Sell    int
}

type compareRowView struct {
	Family string
	Cells  []compareCellView
}

type compareView struct {
	Suffixes []string
	Rows     []compareRowView
}

// WriteComparisonHTML writes the strategy variant matrix.
func (r *Renderer) WriteComparisonHTML(c *analysis.Comparison) error {
	v := compareView{Suffixes: c.Suffixes}
	for _, fam := range c.Families {
		bySuffix := map[string]*analysis.Report{}
		for i := range fam.Variants {
			bySuffix[fam.Variants[i].Suffix] = &fam.Variants[i].Report
		}

		row := compareRowView{Family: fam.Name}
		for _, s := range c.Suffixes {
			rep := bySuffix[s]
			if rep == nil {
				row.Cells = append(row.Cells, compareCellView{})
				continue
			}
			row.Cells = append(row.Cells, compareCellView{
				Present: true,
				PnL:     r.money(rep.TotalPnL),
				MaxDD:   r.money(rep.MaxDrawdownAbs),
				RF:      rep.RecoveryFactor.StringFixed(2),
				MaxT:    rep.MaxTrades,
				Buy:     rep.BuyTrades,
				Sell:    rep.SellTrades,
			})
		}
		v.Rows = append(v.Rows, row)
	}

	return r.writeHTML(ComparisonHTMLFile, compareTemplate, v)
}
