package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/Cyclone1070/lazyvfs/internal/ui/models"
	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

// FormatEvent converts an event into a log line stamped with at.
func FormatEvent(ev vfs.Event, at time.Time) models.EventLine {
	line := models.EventLine{
		At:   at,
		Kind: ev.Kind.String(),
		Path: ev.Path,
	}
	switch {
	case ev.Kind == vfs.EventRename:
		line.Detail = "was " + ev.OldName
	case ev.ReCreation:
		line.Detail = "type changed"
	}
	return line
}

// FormatEvents converts a batch.
func FormatEvents(events []vfs.Event, at time.Time) []models.EventLine {
	lines := make([]models.EventLine, 0, len(events))
	for _, ev := range events {
		lines = append(lines, FormatEvent(ev, at))
	}
	return lines
}

// SummaryMarkdown describes a set of refresh results as markdown.
func SummaryMarkdown(results []*vfs.RefreshResult) string {
	var sb strings.Builder
	sb.WriteString("# Refresh summary\n\n")

	if len(results) == 0 {
		sb.WriteString("Nothing to refresh.\n")
		return sb.String()
	}

	sb.WriteString("| Root | Status | Events | Failures | Visited | Duration |\n")
	sb.WriteString("|------|--------|--------|----------|---------|----------|\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "| `%s` | %s | %d | %d | %d | %s |\n",
			r.Root, r.Status, len(r.Events), len(r.Failures), r.Visited, r.Duration.Round(time.Microsecond))
	}

	var events []vfs.Event
	var failures []vfs.EntryFailure
	for _, r := range results {
		events = append(events, r.Events...)
		failures = append(failures, r.Failures...)
	}

	if len(events) > 0 {
		sb.WriteString("\n## Changes\n\n")
		for _, ev := range events {
			fmt.Fprintf(&sb, "- **%s** `%s`", ev.Kind, ev.Path)
			if ev.Kind == vfs.EventRename {
				fmt.Fprintf(&sb, " (was `%s`)", ev.OldName)
			}
			sb.WriteString("\n")
		}
	}

	if len(failures) > 0 {
		sb.WriteString("\n## Failures\n\n")
		for _, f := range failures {
			fmt.Fprintf(&sb, "- `%s` %s: %v\n", f.Path, f.Op, f.Err)
		}
	}
	return sb.String()
}
