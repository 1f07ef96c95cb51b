package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Cyclone1070/lazyvfs/internal/config"
	"github.com/Cyclone1070/lazyvfs/internal/ui/models"
	"github.com/Cyclone1070/lazyvfs/internal/ui/services"
	"github.com/Cyclone1070/lazyvfs/internal/ui/views"
)

const reservedRows = 2 // status + help

// BubbleTeaModel implements tea.Model
type BubbleTeaModel struct {
	state models.State

	renderer     services.MarkdownRenderer
	tickInterval time.Duration

	eventChan   <-chan []models.EventLine
	statusChan  <-chan StatusMsg
	summaryChan <-chan string

	commandChan chan<- UICommand

	readyChan chan<- struct{}
}

func newBubbleTeaModel(
	channels *UIChannels,
	cfg config.UIConfig,
	root string,
	renderer services.MarkdownRenderer,
	spinnerFactory SpinnerFactory,
) BubbleTeaModel {
	views.SetPrimaryColor(cfg.ColorPrimary)

	maxEvents := cfg.MaxEventLines
	if maxEvents <= 0 {
		maxEvents = 500
	}
	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = 100 * time.Millisecond
	}

	return BubbleTeaModel{
		state: models.State{
			Viewport:  viewport.New(80, 20),
			Spinner:   spinnerFactory(),
			Root:      root,
			MaxEvents: maxEvents,
		},
		renderer:     renderer,
		tickInterval: tickInterval,
		eventChan:    channels.EventChan,
		statusChan:   channels.StatusChan,
		summaryChan:  channels.SummaryChan,
		commandChan:  channels.CommandChan,
		readyChan:    channels.ReadyChan,
	}
}

// Internal messages
type tickMsg time.Time
type eventsReceivedMsg []models.EventLine
type statusUpdateMsg StatusMsg
type summaryReceivedMsg string

// Init initializes the model
func (m BubbleTeaModel) Init() tea.Cmd {
	if m.readyChan != nil {
		close(m.readyChan)
	}

	return tea.Batch(
		m.state.Spinner.Tick,
		tick(m.tickInterval),
		listenForEvents(m.eventChan),
		listenForStatus(m.statusChan),
		listenForSummary(m.summaryChan),
	)
}

// Update handles messages
func (m BubbleTeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		m.state.Viewport.Width = msg.Width
		m.state.Viewport.Height = max(msg.Height-reservedRows, 1)
		m.updateViewport()
		return m, nil

	case tickMsg:
		m.state.DotCount = (m.state.DotCount + 1) % 4
		return m, tick(m.tickInterval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.state.Spinner, cmd = m.state.Spinner.Update(msg)
		return m, cmd

	case eventsReceivedMsg:
		m.appendEvents([]models.EventLine(msg))
		return m, listenForEvents(m.eventChan)

	case statusUpdateMsg:
		m.state.StatusPhase = msg.Phase
		m.state.StatusMessage = msg.Message
		return m, listenForStatus(m.statusChan)

	case summaryReceivedMsg:
		m.state.Summary = string(msg)
		return m, listenForSummary(m.summaryChan)
	}

	return m, nil
}

// View renders the UI
func (m BubbleTeaModel) View() string {
	return views.RenderRoot(m.state, m.renderer)
}

func (m BubbleTeaModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}

	if m.state.ShowSummary {
		if msg.String() == "esc" || msg.String() == "s" {
			m.state.ShowSummary = false
		}
		return m, nil
	}

	switch msg.String() {
	case "r":
		m.sendCommand(UICommand{Type: CommandRefresh, Args: map[string]string{"path": m.state.Root}})
		m.state.StatusPhase = "refreshing"
		m.state.StatusMessage = ""
	case "R":
		m.sendCommand(UICommand{Type: CommandRefreshAll})
		m.state.StatusPhase = "refreshing"
		m.state.StatusMessage = ""
	case "s":
		m.state.ShowSummary = m.state.Summary != ""
	case "c":
		m.state.Events = nil
		m.state.Dropped = 0
		m.updateViewport()
	default:
		var cmd tea.Cmd
		m.state.Viewport, cmd = m.state.Viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// sendCommand never blocks the event loop.
func (m BubbleTeaModel) sendCommand(cmd UICommand) {
	select {
	case m.commandChan <- cmd:
	default:
	}
}

func (m *BubbleTeaModel) appendEvents(lines []models.EventLine) {
	m.state.Events = append(m.state.Events, lines...)
	if over := len(m.state.Events) - m.state.MaxEvents; over > 0 {
		m.state.Events = append([]models.EventLine(nil), m.state.Events[over:]...)
		m.state.Dropped += over
	}
	m.updateViewport()
}

// updateViewport updates the viewport content
func (m *BubbleTeaModel) updateViewport() {
	m.state.Viewport.SetContent(views.FormatEventContent(m.state.Events))
	m.state.Viewport.GotoBottom()
}

func listenForEvents(ch <-chan []models.EventLine) tea.Cmd {
	return func() tea.Msg {
		return eventsReceivedMsg(<-ch)
	}
}

func listenForStatus(ch <-chan StatusMsg) tea.Cmd {
	return func() tea.Msg {
		return statusUpdateMsg(<-ch)
	}
}

func listenForSummary(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return summaryReceivedMsg(<-ch)
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
