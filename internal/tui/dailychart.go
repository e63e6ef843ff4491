package tui

import (
	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/wfarley16/toktrack/internal/types"
)

// renderDailySpendChart draws the trailing window of daily summaries as a
// vertical bar chart, one bar per day, coloring each bar against the
// warn/crit USD thresholds the way renderSpendGauge does for a single value.
func renderDailySpendChart(daily []types.DailySummary, width, height int, warnAt, critAt float64) string {
	if len(daily) == 0 || width < 8 || height < 3 {
		return dimStyle.Render("  No data available")
	}

	bars := make([]barchart.BarData, len(daily))
	for i, d := range daily {
		color := colorOK
		switch {
		case d.TotalCostUSD >= critAt:
			color = colorCrit
		case d.TotalCostUSD >= warnAt:
			color = colorWarn
		}
		bars[i] = barchart.BarData{
			Label: d.Date.Format("01/02"),
			Values: []barchart.BarValue{
				{Name: "spend", Value: d.TotalCostUSD, Style: lipgloss.NewStyle().Foreground(color)},
			},
		}
	}

	chart := barchart.New(width, height, barchart.WithDataSet(bars))
	chart.Draw()
	return chart.View()
}
