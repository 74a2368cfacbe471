package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	active  lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	key     lipgloss.Style
	graph   lipgloss.Style
	panel   lipgloss.Style
	canvas  lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Title),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		active:  lipgloss.NewStyle().Bold(true).Foreground(t.Active),
		muted:   lipgloss.NewStyle().Foreground(t.Muted),
		warning: lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		key:     lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		graph:   lipgloss.NewStyle().Foreground(t.Graph),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2),
		canvas: lipgloss.NewStyle().Padding(0, 1),
	}
}

// Slider renders v within [lo, hi] as a bar of width cells.
func Slider(v, lo, hi float64, width int) string {
	frac := 0.0
	if hi > lo {
		frac = (v - lo) / (hi - lo)
	}
	filled := int(frac*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (s styles) separator(width int) string {
	return s.muted.Render(strings.Repeat("─", width))
}

func (s styles) hint(key, what string) string {
	return s.key.Render(key) + s.muted.Render(" "+what+"  ")
}
