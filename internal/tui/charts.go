package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func lipglossStyle(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// barItem is one labeled row of a horizontal bar chart.
type barItem struct {
	Label    string
	Value    float64
	SubLabel string
}

// renderHBarChart draws one bar per item, scaled against the largest
// value in the set, each row's bar colored by modelColor(item.Label).
func renderHBarChart(items []barItem, maxBarW, labelW int) string {
	if len(items) == 0 {
		return dimStyle.Render("  No data available")
	}
	if maxBarW < 4 {
		maxBarW = 4
	}

	maxVal := 0.0
	for _, item := range items {
		if item.Value > maxVal {
			maxVal = item.Value
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var lines []string
	for _, item := range items {
		label := item.Label
		if len(label) > labelW {
			label = label[:labelW-1] + "…"
		}
		labelRendered := labelStyle.Width(labelW).Render(label)

		barLen := int(item.Value / maxVal * float64(maxBarW))
		if barLen < 1 && item.Value > 0 {
			barLen = 1
		}
		emptyLen := maxBarW - barLen

		color := modelColor(item.Label)
		bar := lipglossStyle(color).Render(strings.Repeat("█", barLen))
		track := lipglossStyle(colorSurface1).Render(strings.Repeat("░", emptyLen))
		valueStr := lipglossStyle(color).Bold(true).Render(formatUSD(item.Value))

		line := fmt.Sprintf("  %s %s%s  %s", labelRendered, bar, track, valueStr)
		if item.SubLabel != "" {
			line += "  " + dimStyle.Render(item.SubLabel)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// renderSparkline condenses a series of daily values into one line of
// block glyphs, downsampling evenly when it doesn't fit in w cells.
func renderSparkline(values []float64, w int) string {
	if len(values) == 0 || w < 1 {
		return ""
	}
	if len(values) > w {
		step := float64(len(values)) / float64(w)
		sampled := make([]float64, w)
		for i := 0; i < w; i++ {
			idx := int(float64(i) * step)
			if idx >= len(values) {
				idx = len(values) - 1
			}
			sampled[i] = values[idx]
		}
		values = sampled
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	rng := maxV - minV
	if rng == 0 {
		rng = 1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - minV) / rng * float64(len(sparkBlocks)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		sb.WriteRune(sparkBlocks[idx])
	}
	return lipglossStyle(colorAccent).Render(sb.String())
}

// renderSpendGauge shows today's spend against a warn/crit USD threshold
// pair, the way a provider-quota burn gauge would, but against config's
// fixed daily thresholds instead of a vendor-reported plan limit.
func renderSpendGauge(label string, spend, warnAt, critAt float64, barW, labelW int) string {
	if barW < 4 {
		barW = 4
	}
	limit := critAt
	if limit <= 0 {
		limit = 1
	}
	pct := spend / limit * 100
	if pct > 100 {
		pct = 100
	}

	lbl := label
	if len(lbl) > labelW {
		lbl = lbl[:labelW-1] + "…"
	}

	filled := int(pct / 100 * float64(barW))
	if filled < 1 && spend > 0 {
		filled = 1
	}
	empty := barW - filled

	barColor := colorOK
	switch {
	case spend >= critAt:
		barColor = colorCrit
	case spend >= warnAt:
		barColor = colorWarn
	}

	bar := lipglossStyle(barColor).Render(strings.Repeat("█", filled))
	track := lipglossStyle(colorSurface1).Render(strings.Repeat("░", empty))
	detail := lipglossStyle(barColor).Bold(true).Render(formatUSD(spend))

	return fmt.Sprintf("  %s %s%s  %s", labelStyle.Width(labelW).Render(lbl), bar, track, detail)
}

func formatUSD(n float64) string {
	if n >= 1000 {
		return fmt.Sprintf("$%.2fK", n/1000)
	}
	return fmt.Sprintf("$%.2f", n)
}

func formatTokens(n uint64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
