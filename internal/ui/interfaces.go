package ui

import "github.com/Cyclone1070/lazyvfs/internal/vfs"

// Command types sent from the UI to the driver.
const (
	CommandRefresh    = "refresh"
	CommandRefreshAll = "refresh_all"
)

// UICommand is a user request the driver acts on.
type UICommand struct {
	Type string
	Args map[string]string
}

// WatchInterface is what a watch session reports to. Writes never block;
// updates are dropped when the UI falls behind.
type WatchInterface interface {
	// WriteStatus shows ephemeral progress ("refreshing", "done", "error").
	WriteStatus(phase string, message string)

	// WriteEvents appends a committed batch to the event log.
	WriteEvents(events []vfs.Event)

	// WriteSummary replaces the refresh summary with markdown.
	WriteSummary(markdown string)

	// Commands delivers user requests.
	Commands() <-chan UICommand
}
