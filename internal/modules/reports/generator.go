// Package reports renders HTML performance reports from trade-event
// collections.
package reports

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/domain"
	"github.com/trueedge/trueedge/internal/modules/metrics"
)

// Generator writes HTML reports into <dataDir>/reports.
type Generator struct {
	dataDir string
	log     zerolog.Logger
}

// NewGenerator creates a new report generator
func NewGenerator(dataDir string, log zerolog.Logger) *Generator {
	return &Generator{
		dataDir: dataDir,
		log:     log.With().Str("component", "reports").Logger(),
	}
}

// metricsBlock is one titled metrics table in the report.
type metricsBlock struct {
	Title   string
	Summary metrics.Summary
}

// reportData is the template payload.
type reportData struct {
	GeneratedAt string
	TotalEvents int
	Overall     metricsBlock
	ByStrategy  []metricsBlock
	ByAccount   []metricsBlock
}

// Generate renders the report for the given events and returns the path of
// the written index.html.
func (g *Generator) Generate(events []domain.TradeEvent, startingBalance float64) (string, error) {
	reportsDir := filepath.Join(g.dataDir, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	data := reportData{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		TotalEvents: len(events),
		Overall: metricsBlock{
			Title:   "Overall",
			Summary: metrics.Compute(events, startingBalance),
		},
		ByStrategy: groupBlocks(events, "strategy_id"),
		ByAccount:  groupBlocks(events, "account_id"),
	}

	outPath := filepath.Join(reportsDir, "index.html")
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := reportTemplate.Execute(f, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	g.log.Info().
		Str("path", outPath).
		Int("events", len(events)).
		Msg("HTML report generated")

	return outPath, nil
}

// groupBlocks computes one metrics block per group, preserving first-seen
// group order.
func groupBlocks(events []domain.TradeEvent, field string) []metricsBlock {
	groups := metrics.GroupBy(events, field)

	blocks := make([]metricsBlock, 0, groups.Len())
	for _, key := range groups.Keys() {
		blocks = append(blocks, metricsBlock{
			Title:   fmt.Sprintf("%s = %s", field, key),
			Summary: metrics.Compute(groups.Events(key), 0.0),
		})
	}
	return blocks
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>TRUEEDGE Performance Report</title>
  <style>
    body { font-family: sans-serif; margin: 2rem; color: #222; }
    h1 { border-bottom: 2px solid #444; padding-bottom: .3rem; }
    h2 { margin-top: 2rem; }
    table { border-collapse: collapse; margin: .5rem 0 1.5rem; }
    th, td { border: 1px solid #999; padding: .3rem .8rem; text-align: left; }
    th { background: #eee; }
    .meta { color: #666; font-size: .9rem; }
  </style>
</head>
<body>
  <h1>TRUEEDGE Performance Report</h1>
  <p class="meta">Generated at {{.GeneratedAt}} &middot; {{.TotalEvents}} events</p>

  {{template "block" .Overall}}

  <h2>Metrics by strategy</h2>
  {{range .ByStrategy}}{{template "block" .}}{{end}}

  <h2>Metrics by account</h2>
  {{range .ByAccount}}{{template "block" .}}{{end}}
</body>
</html>
{{define "block"}}
  <h3>{{.Title}}</h3>
  <table>
    <tbody>
      <tr><td>total_trades</td><td>{{.Summary.TotalTrades}}</td></tr>
      <tr><td>total_pnl</td><td>{{.Summary.TotalPnL}}</td></tr>
      <tr><td>ending_equity</td><td>{{.Summary.EndingEquity}}</td></tr>
      <tr><td>max_drawdown</td><td>{{.Summary.MaxDrawdown}}</td></tr>
      <tr><td>wins</td><td>{{.Summary.Wins}}</td></tr>
      <tr><td>losses</td><td>{{.Summary.Losses}}</td></tr>
      <tr><td>win_rate</td><td>{{.Summary.WinRate}}</td></tr>
    </tbody>
  </table>
{{end}}`))
