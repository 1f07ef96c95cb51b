package views

import (
	"github.com/Cyclone1070/lazyvfs/internal/ui/models"
	"github.com/Cyclone1070/lazyvfs/internal/ui/services"
)

// RenderSummaryPopup renders the last refresh summary.
func RenderSummaryPopup(s models.State, renderer services.MarkdownRenderer) string {
	if !s.ShowSummary || s.Summary == "" {
		return ""
	}

	width := s.Width - 8
	if width < 20 {
		width = 20
	}
	content, err := services.RenderMarkdown(s.Summary, width, renderer)
	if err != nil {
		content = s.Summary
	}
	return SummaryBoxStyle.Render(content)
}
