package views

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/lazyvfs/internal/ui/models"
)

// RenderEvents renders the event log.
func RenderEvents(s models.State) string {
	if len(s.Events) == 0 {
		return "No changes yet. Waiting for filesystem activity."
	}
	return s.Viewport.View()
}

// FormatEventContent formats event lines for the viewport.
func FormatEventContent(events []models.EventLine) string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		line := fmt.Sprintf("%s %s %s",
			TimestampStyle.Render(ev.At.Format("15:04:05")),
			kindStyle(ev.Kind).Render(fmt.Sprintf("%-14s", ev.Kind)),
			ev.Path,
		)
		if ev.Detail != "" {
			line += " " + TimestampStyle.Render("("+ev.Detail+")")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
