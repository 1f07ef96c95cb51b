package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Cyclone1070/lazyvfs/internal/config"
	"github.com/Cyclone1070/lazyvfs/internal/ui/models"
	"github.com/Cyclone1070/lazyvfs/internal/ui/services"
	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

// UI implements WatchInterface using Bubble Tea
type UI struct {
	program *tea.Program

	// Driver -> UI channels
	eventChan   chan []models.EventLine
	statusChan  chan StatusMsg
	summaryChan chan string

	// UI -> Driver
	commandChan chan UICommand

	readyChan chan struct{}
	now       func() time.Time
}

// StatusMsg is a status bar update.
type StatusMsg struct {
	Phase   string
	Message string
}

// UIChannels holds the channels for UI communication
type UIChannels struct {
	EventChan   chan []models.EventLine
	StatusChan  chan StatusMsg
	SummaryChan chan string
	CommandChan chan UICommand
	ReadyChan   chan struct{} // Closed once the model is initialised
}

// NewUIChannels creates the channels, sizing the event buffer from cfg.
func NewUIChannels(cfg *config.Config) *UIChannels {
	buffer := 64
	if cfg != nil && cfg.UI.MaxEventLines > 0 && cfg.UI.MaxEventLines < buffer {
		buffer = cfg.UI.MaxEventLines
	}
	return &UIChannels{
		EventChan:   make(chan []models.EventLine, buffer),
		StatusChan:  make(chan StatusMsg, 10),
		SummaryChan: make(chan string, 1),
		CommandChan: make(chan UICommand, 10),
		ReadyChan:   make(chan struct{}),
	}
}

// SpinnerFactory creates a new spinner
type SpinnerFactory func() spinner.Model

// NewUI creates a new Bubble Tea UI watching root.
func NewUI(
	channels *UIChannels,
	cfg config.UIConfig,
	root string,
	renderer services.MarkdownRenderer,
	spinnerFactory SpinnerFactory,
) *UI {
	ui := &UI{
		eventChan:   channels.EventChan,
		statusChan:  channels.StatusChan,
		summaryChan: channels.SummaryChan,
		commandChan: channels.CommandChan,
		readyChan:   channels.ReadyChan,
		now:         time.Now,
	}

	model := newBubbleTeaModel(channels, cfg, root, renderer, spinnerFactory)
	ui.program = tea.NewProgram(model, tea.WithAltScreen())

	return ui
}

// Start runs the program until the user quits.
func (u *UI) Start() error {
	_, err := u.program.Run()
	return err
}

// Quit stops the program from outside.
func (u *UI) Quit() {
	u.program.Quit()
}

// Listener adapts the UI to vfs.Listener. Batches are shown once applied.
func (u *UI) Listener() vfs.Listener {
	return vfs.ListenerFuncs{After: u.WriteEvents}
}

// WriteStatus updates the status bar
func (u *UI) WriteStatus(phase string, message string) {
	select {
	case u.statusChan <- StatusMsg{Phase: phase, Message: message}:
	default:
	}
}

// WriteEvents appends a batch to the event log.
func (u *UI) WriteEvents(events []vfs.Event) {
	if len(events) == 0 {
		return
	}
	lines := services.FormatEvents(events, u.now())
	select {
	case u.eventChan <- lines:
	default:
		// Full; the model counts what it never saw.
		u.WriteStatus("error", "event log behind, batch dropped")
	}
}

// WriteSummary replaces the summary, discarding an unread one.
func (u *UI) WriteSummary(markdown string) {
	for {
		select {
		case u.summaryChan <- markdown:
			return
		default:
		}
		select {
		case <-u.summaryChan:
		default:
		}
	}
}

// Commands returns the command channel
func (u *UI) Commands() <-chan UICommand {
	return u.commandChan
}

// Ready returns a channel that is closed when the UI is ready
func (u *UI) Ready() <-chan struct{} {
	return u.readyChan
}
