package models

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
)

// EventLine is one change as shown in the event log.
type EventLine struct {
	At     time.Time
	Kind   string
	Path   string
	Detail string
}

// State holds everything the views need to render a frame.
type State struct {
	Width  int
	Height int

	Viewport viewport.Model
	Spinner  spinner.Model

	Root      string
	Events    []EventLine
	MaxEvents int
	// Dropped counts lines trimmed to stay within MaxEvents.
	Dropped int

	StatusPhase   string
	StatusMessage string
	DotCount      int

	// Summary is markdown describing the last refresh.
	Summary     string
	ShowSummary bool
}
