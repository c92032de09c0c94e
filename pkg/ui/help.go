package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const helpContent = `**Navigation**
  j/k       Move up/down
  g/G       Jump to top/bottom
  Enter     Open document
  h/l/Space Fold or unfold a branch

**Reordering (mouse)**
  Drag a row and release it:
  • upper third   insert before
  • middle        nest inside
  • lower third   insert after
  • top band      first root position
  • bottom band   last root position
  Release anywhere else to cancel.
  Archived entries cannot be dragged.

**Other**
  y         Yank document id
  r         Refresh from the server
  ?/Esc     Close this overlay
  q         Quit`

// RenderHelp renders the help modal. Compact on purpose; it must fit a
// small terminal without scrolling.
func RenderHelp(theme Theme, width int) string {
	r := theme.Renderer

	modalWidth := 48
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	titleStyle := r.NewStyle().Bold(true).Foreground(theme.Primary)
	contentStyle := r.NewStyle().Foreground(theme.Muted)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(contentStyle.Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(helpContent)

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	return modalStyle.Render(b.String())
}
