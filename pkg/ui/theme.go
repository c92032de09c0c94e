package ui

import "github.com/charmbracelet/lipgloss"

// Theme carries the visual styling for the tree view and preview pane.
// Styles are created through the renderer so output degrades correctly
// on dumb terminals and in tests.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Selected lipgloss.Style
	Dragging lipgloss.Style
	DropHint lipgloss.Style
	Disabled lipgloss.Style
}

// DefaultTheme builds the standard adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#1A7F5A", Dark: "#2BD98F"},
		Secondary: lipgloss.AdaptiveColor{Light: "#8250DF", Dark: "#B185F2"},
		Muted:     lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#7D8590"},
		Highlight: lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#58A6FF"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"},
	}
	t.Selected = r.NewStyle().Bold(true).Foreground(t.Highlight).Reverse(true)
	t.Dragging = r.NewStyle().Faint(true)
	t.DropHint = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Disabled = r.NewStyle().Foreground(t.Muted).Strikethrough(true)
	return t
}

// KindIcon returns the glyph and color for a document kind.
func (t Theme) KindIcon(kind string) (string, lipgloss.AdaptiveColor) {
	switch kind {
	case "markdown":
		return "≡", t.Highlight
	case "whiteboard":
		return "▦", t.Secondary
	default:
		return "•", t.Muted
	}
}
