package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Cyclone1070/lazyvfs/internal/ui/models"
)

// RenderStatus renders the status bar
func RenderStatus(s models.State) string {
	var icon string
	var style lipgloss.Style

	switch s.StatusPhase {
	case "refreshing":
		icon = s.Spinner.View()
		style = StatusRefreshingStyle
		if s.StatusMessage == "" {
			dots := strings.Repeat(".", s.DotCount)
			return style.Render(fmt.Sprintf("%s Refreshing%s", icon, dots))
		}
	case "done":
		icon = "✔"
		style = StatusDoneStyle
	case "error":
		icon = "✘"
		style = StatusErrorStyle
	default:
		style = StatusDefaultStyle
	}

	status := "Watching"
	if s.StatusMessage != "" {
		status = strings.TrimSpace(fmt.Sprintf("%s %s", icon, s.StatusMessage))
	}
	leftSide := style.Render(status)

	var right []string
	if s.Dropped > 0 {
		right = append(right, fmt.Sprintf("%d dropped", s.Dropped))
	}
	if s.Root != "" {
		right = append(right, s.Root)
	}
	if len(right) == 0 {
		return leftSide
	}
	rightSide := lipgloss.NewStyle().Foreground(ColorDim).Render(strings.Join(right, "  "))
	return fmt.Sprintf("%s  %s", leftSide, rightSide)
}
