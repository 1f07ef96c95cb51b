package views

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Cyclone1070/lazyvfs/internal/ui/models"
	"github.com/Cyclone1070/lazyvfs/internal/ui/services"
)

// RenderRoot renders the complete UI layout
func RenderRoot(s models.State, renderer services.MarkdownRenderer) string {
	if s.ShowSummary {
		if popup := RenderSummaryPopup(s, renderer); popup != "" {
			return lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.Place(s.Width, s.Height-1, lipgloss.Center, lipgloss.Center, popup,
					lipgloss.WithWhitespaceChars(" ")),
				RenderHelp(s),
			)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		RenderEvents(s),
		RenderStatus(s),
		RenderHelp(s),
	)
}
