package render

import "html/template"

var analysisTemplate = template.Must(template.New("analysis").Parse(`<!DOCTYPE html>
<html lang='en'>
<head>
    <meta charset='UTF-8'>
    <meta name='viewport' content='width=device-width, initial-scale=1.0'>
    <title>Portfolio Analysis Report</title>
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 1200px; margin: 0 auto; padding: 20px; background-color: #f4f7f6; }
        h1, h2, h3 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; margin-top: 30px; }
        .summary-box { background-color: #fff; padding: 20px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); margin-bottom: 20px; }
        .summary-box p { margin: 5px 0; font-size: 1.1em; }
        table { border-collapse: collapse; width: 100%; margin: 20px 0; background-color: #fff; box-shadow: 0 2px 5px rgba(0,0,0,0.05); }
        th, td { padding: 12px 15px; border: 1px solid #ddd; text-align: left; }
        th { background-color: #3498db; color: white; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        code { background-color: #eef; padding: 2px 4px; border-radius: 4px; font-family: monospace; }
        .chart-container { text-align: center; margin: 30px 0; background-color: #fff; padding: 20px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .chart-container img { max-width: 100%; height: auto; border-radius: 4px; }
        ul { list-style-type: none; padding: 0; }
        li { background: #fff; margin-bottom: 5px; padding: 10px; border-left: 5px solid #3498db; border-radius: 0 4px 4px 0; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
        .status-included { color: #27ae60; font-weight: bold; }
        .status-skipped { color: #e74c3c; font-weight: bold; }
        .status-partial { color: #f39c12; font-weight: bold; }
        .params-list { display: flex; flex-direction: column; gap: 5px; list-style: none; padding: 0; margin-top: 10px; }
        .params-list li { border: 1px solid #ddd; border-left: 5px solid #3498db; padding: 8px 12px; background: #fff; font-size: 0.95em; box-shadow: 0 1px 2px rgba(0,0,0,0.05); margin-bottom: 0; width: fit-content; min-width: 250px; }
        .histogram-table { width: auto; min-width: 400px; }
    </style>
</head>
<body>
<h1>Portfolio Analysis Report</h1>
<div class='summary-box'>
<p><strong>Period:</strong> {{.Period}}</p>
<p><strong>Included Reports:</strong> {{.Included}} / {{.Total}}</p>
<p><strong>Base Capital:</strong> {{.Base}}</p>
<p><strong>Final Balance:</strong> {{.FinalBalance}}</p>
<p><strong>Total Profit:</strong> {{.TotalProfit}}</p>
<p><strong>Max Drawdown:</strong> {{.MaxDrawdown}}</p>
{{if .HasConsDD}}<p><strong>Conservative Daily Drawdown:</strong> {{.ConsDD}} (worst day {{.ConsDay}})</p>
{{end}}</div>
<h2>Performance Charts</h2>
{{if .OverviewSrc}}<div class='chart-container'><img src='{{.OverviewSrc}}' alt='Portfolio Overview'></div>
{{else}}<p>Portfolio Overview chart is not available (no portfolio-wide trades found).</p>
{{end}}
{{if .Monthly}}<h2>Monthly Contributor Breakdown</h2>
<table>
<thead>
<tr><th>S.No</th><th>Symbol</th><th>Report File</th>{{range .Monthly.Months}}<th>{{.}}</th>{{end}}<th>Total</th></tr>
</thead>
<tbody>
{{range .Monthly.Rows}}<tr><td>{{.Index}}</td><td>{{.Symbol}}</td><td>{{if .Link}}<a href='{{.Link}}' target='_blank'><code>{{.Report}}</code></a>{{else}}<code>{{.Report}}</code>{{end}}</td>{{range .Cells}}<td style="background-color:{{.Color}}; color:black; text-align:right;">{{.Value}}</td>{{end}}<td style="background-color:{{.Total.Color}}; color:black; text-align:right;"><b>{{.Total.Value}}</b></td></tr>
{{end}}<tr><td colspan='3'><b>Total</b></td>{{range .Monthly.Totals}}<td style="background-color:{{.Color}}; color:black; text-align:right;"><b>{{.Value}}</b></td>{{end}}<td style="background-color:{{.Monthly.Grand.Color}}; color:black; text-align:right;"><b>{{.Monthly.Grand.Value}}</b></td></tr>
</tbody>
</table>
{{else}}<p>No trades included in the aggregate portfolio for the specified period.</p>
{{end}}
{{if .Excluded}}<h2>Explicitly Excluded Reports</h2>
<p>These files were skipped because they were marked with <code>Include = 0</code> in the report list:</p>
<ul>
{{range .Excluded}}<li><a href='{{.Link}}' target='_blank'><code>{{.Name}}</code></a></li>
{{end}}</ul>
{{end}}
{{if .Overlapping}}<h2>Overlapping Trades (Skipped)</h2>
<p>These files were marked for inclusion but skipped because all their trades overlapped with already accepted sequences:</p>
<ul>
{{range .Overlapping}}<li><a href='{{.Link}}' target='_blank'><code>{{.Name}}</code></a></li>
{{end}}</ul>
{{end}}
<h2>Detailed Per-Report Analysis</h2>
{{range .Reports}}<h3>{{.Index}}. Report: <a href='{{.Link}}' target='_blank'>{{.Name}}</a></h3>
<ul>
<li><strong>Status</strong>: <span class='{{.StatusClass}}'>{{.Status}}</span>{{if .Reason}} ({{.Reason}}){{end}}</li>
{{if .HasMetrics}}<li><strong>Total PnL</strong>: {{.TotalPnL}}</li>
<li><strong>Selected PnL</strong>: {{.SelectedPnL}}</li>
<li><strong>Max Drawdown</strong>: {{.MaxDrawdown}}</li>
<li><strong>Recovery Factor</strong>: {{.RecoveryFactor}}</li>
<li><strong>Max Trades in Sequence</strong>: {{.MaxTrades}}{{if .MaxTradesDate}} (on {{.MaxTradesDate}}{{if .MaxTradesGap}}, {{.MaxTradesGap}}{{end}}){{end}}</li>
<li><strong>Buy Trades</strong>: {{.BuyTrades}}</li>
<li><strong>Sell Trades</strong>: {{.SellTrades}}</li>
<li><strong>Parameters</strong>:
<ul class='params-list'>
{{if .Params}}<li>Lot Size: <code>{{.Params.LotSize}}</code></li>
<li>Stop Loss: <code>{{.Params.StopLoss}}</code></li>
<li>Max Lots: <code>{{.Params.MaxLots}}</code></li>
<li>Lot Size Exponent: <code>{{.Params.LotSizeExponent}}</code></li>
<li>Delay Trade Sequence: <code>{{.Params.DelayTradeSequence}}</code></li>
<li>Live Delay: <code>{{.Params.LiveDelay}}</code></li>
{{end}}<li>Initial LotSize (Report): <code>{{.InitialLot}}</code></li>
</ul></li>
{{end}}</ul>
{{if .ChartSrc}}<div class='chart-container'><img src='{{.ChartSrc}}' alt='{{.Name}} Charts'></div>
{{end}}{{if .Histogram}}<table class='histogram-table'>
<thead><tr><th>Trades in Sequence</th><th>Frequency</th><th>Total PnL</th></tr></thead>
<tbody>
{{range .Histogram}}<tr><td>{{.Length}}</td><td>{{.Count}}</td><td style="text-align:right;">{{.TotalPnL}}</td></tr>
{{end}}</tbody>
</table>
{{end}}{{end}}
</body>
</html>
`))

var simTemplate = template.Must(template.New("sim").Parse(`<!DOCTYPE html>
<html lang='en'>
<head>
    <meta charset='UTF-8'>
    <meta name='viewport' content='width=device-width, initial-scale=1.0'>
    <title>Simulation Report</title>
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 1600px; margin: 0 auto; padding: 20px; background-color: #f4f7f6; }
        h1, h2 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; margin-top: 30px; }
        table { border-collapse: collapse; width: 100%; margin: 20px 0; background-color: #fff; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        th, td { padding: 8px 10px; border: 1px solid #ddd; text-align: left; font-size: 0.85em; }
        th { background-color: #3498db; color: white; white-space: nowrap; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .sim-header { background-color: #2980b9; text-align: center; }
        .sub-header { background-color: #ecf0f1; color: #333; font-weight: bold; text-align: center; font-size: 0.8em; }
        .profit { color: #27ae60; font-weight: bold; }
        .drawdown { color: #e74c3c; }
        .summary-box { background-color: #fff; padding: 15px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); margin-bottom: 20px; }
        .threshold { color: #8e44ad; font-style: italic; }
    </style>
</head>
<body>
<h1>Simulation Report (Varying Lot Sizes)</h1>
<div class='summary-box'>
    <p>This report simulates performance and $1,000 drawdown thresholds for fixed lot sizes.</p>
    <p>PnL and MaxDD are scaled linearly: <code>Multiplier = Target Lot / Initial Lot</code>.</p>
    <p>1k Pip Gap and Trade Level come from the theoretical grid sensitivity analysis.</p>
</div>
<table>
<thead>
<tr><th rowspan="2">S.No</th><th rowspan="2">Symbol</th><th rowspan="2">Report File</th><th rowspan="2">Max Trades<br>(Seq)</th><th rowspan="2">Pip Gap<br>(Max Seq)</th>{{range .Lots}}<th colspan="4" class="sim-header">Lot {{.}}</th>{{end}}</tr>
<tr>{{range .Lots}}<th class="sub-header">PnL</th><th class="sub-header">MaxDD</th><th class="sub-header">1k Gap</th><th class="sub-header">1k Lvl</th>{{end}}</tr>
</thead>
<tbody>
{{range .Rows}}<tr><td>{{.Index}}</td><td>{{.Symbol}}</td><td><a href='{{.Link}}' target='_blank'>{{.Name}}</a></td><td>{{.MaxTrades}}</td><td>{{.MaxGap}}</td>{{range .Cells}}<td><span class='profit'>{{.PnL}}</span></td><td><span class='drawdown'>{{.MaxDD}}</span></td><td><span class='threshold'>{{.Gap}}</span></td><td><span class='threshold'>{{.Level}}</span></td>{{end}}</tr>
{{end}}<tr><td colspan='5'><b>TOTAL</b></td>{{range $i, $p := .TotalPnL}}<td><b>{{$p}}</b></td><td><b>{{index $.TotalDD $i}}</b></td><td colspan='2' style='background:#f9f9f9;'></td>{{end}}</tr>
</tbody>
</table>
</body>
</html>
`))

var compareTemplate = template.Must(template.New("compare").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Strategy Comparison Report</title>
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7f6; color: #333; margin: 20px; }
        h2 { color: #2c3e50; text-align: center; margin-bottom: 30px; }
        table { border-collapse: collapse; width: 100%; box-shadow: 0 4px 6px rgba(0,0,0,0.1); background-color: white; border-radius: 8px; overflow: hidden; }
        th, td { border: 1px solid #eee; padding: 15px; text-align: left; vertical-align: top; }
        th { background-color: #3498db; color: white; font-weight: 600; text-transform: uppercase; font-size: 0.9em; letter-spacing: 1px; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        tr:hover { background-color: #f1f1f1; }
        .base-name { font-weight: bold; color: #2980b9; }
        .metric-block { line-height: 1.6; font-size: 0.9em; }
    </style>
</head>
<body>
    <h2>Strategy Variant Comparison</h2>
    <table class='comparison-table'>
<thead>
<tr><th>Base Strategy</th>{{range .Suffixes}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{range .Rows}}<tr><td class='base-name'>{{.Family}}</td>{{range .Cells}}<td>{{if .Present}}<div class='metric-block'>PnL: {{.PnL}}<br>DD: {{.MaxDD}}<br>RF: {{.RF}}<br>MaxT: {{.MaxT}}<br>B/S: {{.Buy}}/{{.Sell}}</div>{{end}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))
