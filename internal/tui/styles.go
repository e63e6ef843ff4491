package tui

import "github.com/charmbracelet/lipgloss"

// Color variables are repointed at the active Theme's tokens by applyTheme,
// which themes.go calls on init and on every theme switch.
var (
	colorBase     lipgloss.Color
	colorMantle   lipgloss.Color
	colorSurface0 lipgloss.Color
	colorSurface1 lipgloss.Color
	colorSurface2 lipgloss.Color
	colorOverlay  lipgloss.Color

	colorText    lipgloss.Color
	colorSubtext lipgloss.Color
	colorDim     lipgloss.Color

	colorAccent   lipgloss.Color
	colorBlue     lipgloss.Color
	colorSapphire lipgloss.Color
	colorGreen    lipgloss.Color
	colorYellow   lipgloss.Color
	colorRed      lipgloss.Color
	colorPeach    lipgloss.Color
	colorTeal     lipgloss.Color
	colorLavender lipgloss.Color

	colorOK   lipgloss.Color
	colorWarn lipgloss.Color
	colorCrit lipgloss.Color
)

var (
	headerStyle        lipgloss.Style
	headerBrandStyle   lipgloss.Style
	sectionHeaderStyle lipgloss.Style
	helpStyle          lipgloss.Style
	helpKeyStyle       lipgloss.Style
	labelStyle         lipgloss.Style
	valueStyle         lipgloss.Style
	dimStyle           lipgloss.Style

	badgeOKStyle   lipgloss.Style
	badgeWarnStyle lipgloss.Style
	badgeCritStyle lipgloss.Style

	// modelColorPalette cycles stable colors across a day's per-model bars,
	// so the same model keeps the same hue across a session.
	modelColorPalette []lipgloss.Color
)

func applyTheme(t Theme) {
	colorBase = t.Base
	colorMantle = t.Mantle
	colorSurface0 = t.Surface0
	colorSurface1 = t.Surface1
	colorSurface2 = t.Surface2
	colorOverlay = t.Overlay
	colorText = t.Text
	colorSubtext = t.Subtext
	colorDim = t.Dim
	colorAccent = t.Accent
	colorBlue = t.Blue
	colorSapphire = t.Sapphire
	colorGreen = t.Green
	colorYellow = t.Yellow
	colorRed = t.Red
	colorPeach = t.Peach
	colorTeal = t.Teal
	colorLavender = t.Lavender

	colorOK = colorGreen
	colorWarn = colorYellow
	colorCrit = colorRed

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorLavender)
	headerBrandStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	helpStyle = lipgloss.NewStyle().Foreground(colorDim)
	helpKeyStyle = lipgloss.NewStyle().Foreground(colorSapphire).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(colorSubtext)
	valueStyle = lipgloss.NewStyle().Foreground(colorText)
	dimStyle = lipgloss.NewStyle().Foreground(colorDim)

	badgeOKStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	badgeWarnStyle = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	badgeCritStyle = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	modelColorPalette = []lipgloss.Color{
		colorPeach, colorTeal, colorSapphire, colorGreen,
		colorYellow, colorLavender, colorBlue, colorAccent,
	}
}

// modelColor picks a stable color for a model name by hashing it onto the
// palette, so re-renders don't reshuffle colors between frames.
func modelColor(model string) lipgloss.Color {
	if len(modelColorPalette) == 0 {
		return colorAccent
	}
	var h uint32
	for _, b := range []byte(model) {
		h = h*31 + uint32(b)
	}
	return modelColorPalette[int(h)%len(modelColorPalette)]
}
