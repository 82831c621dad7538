package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/pplcc/plotext"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/csvk/MT5Enhance/internal/analysis"
	"github.com/csvk/MT5Enhance/internal/portfolio"
)

// WriteCharts refreshes the charts directory and draws the portfolio
// overview plus one chart per report with a standalone curve.
func (r *Renderer) WriteCharts(out *analysis.Outcome) error {
	if r.opts.NoCharts {
		return nil
	}
	dir, err := r.refreshDir(analysis.ChartsDir)
	if err != nil {
		return err
	}

	if len(out.Pooled.Points) > 0 {
		st, err := curveStack("Portfolio Performance (Balance)", out.Pooled, r.opts)
		if err != nil {
			return err
		}
		if err := st.save(filepath.Join(dir, OverviewChartFile)); err != nil {
			return err
		}
		r.charts[OverviewChartFile] = true
	} else {
		r.log.Info("skipping portfolio overview chart, no portfolio-wide trades")
	}

	n := 0
	for _, d := range out.Reports {
		if d.OwnCurve == nil || len(d.OwnCurve.Points) == 0 {
			continue
		}
		st, err := curveStack("Balance Growth", d.OwnCurve, r.opts)
		if err != nil {
			return err
		}
		name := ReportChartFile(d.Base)
		if err := st.save(filepath.Join(dir, name)); err != nil {
			return err
		}
		r.charts[name] = true
		n++
	}

	r.log.Info("charts written", "overview", r.charts[OverviewChartFile], "reports", n)
	return nil
}

// chartSrc returns the relative image path for a chart, or "" when the
// chart was neither drawn this run nor left by an earlier one.
func (r *Renderer) chartSrc(name string) string {
	if !r.charts[name] {
		if _, err := os.Stat(filepath.Join(r.opts.OutputDir, analysis.ChartsDir, name)); err != nil {
			return ""
		}
	}
	return analysis.ChartsDir + "/" + name
}

// curveStack builds the standard two-panel chart for a balance series:
// the balance curve above the underwater drawdown.
func curveStack(balanceTitle string, s *portfolio.Series, opts Options) (*stack, error) {
	bal, err := balancePlot(balanceTitle, s)
	if err != nil {
		return nil, err
	}
	dd, err := drawdownPlot(s)
	if err != nil {
		return nil, err
	}

	st := newStack(opts.ChartWidth, opts.ChartHeight)
	st.add(bal, 1)
	st.add(dd, 1)
	return st, nil
}

func balancePlot(title string, s *portfolio.Series) (*plot.Plot, error) {
	p := newTimePanel(title, "Amount", s)
	line, err := plotter.NewLine(balancePoints(s))
	if err != nil {
		return nil, fmt.Errorf("failed to build balance line: %w", err)
	}
	line.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)
	return p, nil
}

func drawdownPlot(s *portfolio.Series) (*plot.Plot, error) {
	p := newTimePanel("Underwater Drawdown", "Drawdown %", s)
	line, err := plotter.NewLine(drawdownPoints(s))
	if err != nil {
		return nil, fmt.Errorf("failed to build drawdown line: %w", err)
	}
	line.Color = color.RGBA{R: 255, A: 255}
	line.FillColor = color.NRGBA{R: 255, A: 76}
	p.Add(line)
	return p, nil
}

func newTimePanel(title, ylabel string, s *portfolio.Series) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = monthTicks{start: s.Start, end: s.End}
	p.Add(plotter.NewGrid())
	return p
}

func balancePoints(s *portfolio.Series) plotter.XYs {
	pts := make(plotter.XYs, 0, len(s.Points)+2)
	last := s.Base.InexactFloat64()
	pts = append(pts, plotter.XY{X: timeX(s.Start), Y: last})
	for _, pt := range s.Points {
		last = pt.Balance.InexactFloat64()
		pts = append(pts, plotter.XY{X: timeX(pt.Time), Y: last})
	}
	return append(pts, plotter.XY{X: timeX(s.End), Y: last})
}

func drawdownPoints(s *portfolio.Series) plotter.XYs {
	pts := make(plotter.XYs, 0, len(s.Points)+2)
	last := 0.0
	pts = append(pts, plotter.XY{X: timeX(s.Start), Y: last})
	for _, pt := range s.Points {
		last = pt.DrawdownPct.InexactFloat64() * 100
		pts = append(pts, plotter.XY{X: timeX(pt.Time), Y: last})
	}
	return append(pts, plotter.XY{X: timeX(s.End), Y: last})
}

func timeX(t time.Time) float64 {
	return float64(t.Unix())
}

// monthTicks places a tick at the first day of every month in the series
// range; with the grid enabled they draw the vertical month rules.
type monthTicks struct {
	start, end time.Time
}

func (m monthTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	t := time.Date(m.start.Year(), m.start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !t.After(m.end) {
		if v := float64(t.Unix()); v >= min && v <= max {
			ticks = append(ticks, plot.Tick{Value: v, Label: t.Format("2006-01")})
		}
		t = t.AddDate(0, 1, 0)
	}
	return ticks
}

// stack assembles vertically stacked panels sharing one x range into a
// single PNG.
type stack struct {
	plots   []*plot.Plot
	heights []float64
	w, h    int
}

func newStack(w, h int) *stack {
	return &stack{w: w, h: h}
}

func (s *stack) add(p *plot.Plot, height float64) {
	s.plots = append(s.plots, p)
	s.heights = append(s.heights, height)
}

func (s *stack) save(path string) (err error) {
	axes := make([]*plot.Axis, 0, len(s.plots))
	for _, p := range s.plots {
		axes = append(axes, &p.X)
	}
	plotext.UniteAxisRanges(axes)

	tbl := plotext.Table{RowHeights: s.heights, ColWidths: []float64{1}}
	rows := make([][]*plot.Plot, 0, len(s.plots))
	for _, p := range s.plots {
		rows = append(rows, []*plot.Plot{p})
	}

	total := 0.0
	for _, v := range s.heights {
		total += v * float64(s.h)
	}

	img := vgimg.New(vg.Points(float64(s.w)), vg.Points(total))
	canvases := tbl.Align(rows, draw.New(img))
	for i, p := range s.plots {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
