package views

import "github.com/Cyclone1070/lazyvfs/internal/ui/models"

// RenderHelp renders the key hints.
func RenderHelp(s models.State) string {
	if s.ShowSummary {
		return HelpStyle.Render("esc: close  q: quit")
	}
	return HelpStyle.Render("r: refresh  R: refresh all  s: summary  c: clear  ↑/↓: scroll  q: quit")
}
