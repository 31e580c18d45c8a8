package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/xavierca1/clientpulse/internal/entity"
)

var palette = map[string]lipgloss.Color{
	"blue":   lipgloss.Color("#5B8DEF"),
	"orange": lipgloss.Color("#F7B801"),
	"green":  lipgloss.Color("#4CAF50"),
	"cyan":   lipgloss.Color("#22D3EE"),
	"teal":   lipgloss.Color("#14B8A6"),
	"red":    lipgloss.Color("#FF6B6B"),
	"gray":   lipgloss.Color("#999999"),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CCCCCC"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")).Italic(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	selectedRow  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func colorFor(name string) lipgloss.Color {
	if c, ok := palette[name]; ok {
		return c
	}
	return palette["gray"]
}

func chip(p entity.StatusPresentation) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#111111")).
		Background(colorFor(p.Color)).
		Padding(0, 1).
		Render(p.Label)
}

// button renders an action the way its emphasis asks: filled gets a
// background, light a colored label, subtle stays gray.
func button(p entity.ActionPresentation) string {
	style := lipgloss.NewStyle()
	switch p.Emphasis {
	case entity.EmphasisFilled:
		style = style.Background(colorFor(p.Color)).Foreground(lipgloss.Color("#111111")).Padding(0, 1)
	case entity.EmphasisLight:
		style = style.Foreground(colorFor(p.Color))
	default:
		style = style.Foreground(palette["gray"]).Faint(true)
	}
	return style.Render(p.Label)
}
