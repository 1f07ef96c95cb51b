package ui

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/lazyvfs/internal/config"
	"github.com/Cyclone1070/lazyvfs/internal/vfs"
)

// Mock dependencies
type MockMarkdownRenderer struct {
	RenderFunc func(string, int) (string, error)
}

func (m *MockMarkdownRenderer) Render(content string, width int) (string, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(content, width)
	}
	return content, nil
}

func mockSpinnerFactory() spinner.Model {
	return spinner.New()
}

func newTestUI(t *testing.T) (*UI, *UIChannels) {
	t.Helper()
	cfg := config.DefaultConfig()
	channels := NewUIChannels(cfg)
	ui := NewUI(channels, cfg.UI, "/repo", &MockMarkdownRenderer{}, mockSpinnerFactory)
	ui.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return ui, channels
}

var _ WatchInterface = (*UI)(nil)

func TestWriteStatus(t *testing.T) {
	ui, channels := newTestUI(t)

	ui.WriteStatus("refreshing", "/repo")

	select {
	case msg := <-channels.StatusChan:
		assert.Equal(t, "refreshing", msg.Phase)
		assert.Equal(t, "/repo", msg.Message)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for status update")
	}
}

func TestWriteStatus_DropsWhenFull(t *testing.T) {
	ui, channels := newTestUI(t)

	for i := 0; i < cap(channels.StatusChan)+5; i++ {
		ui.WriteStatus("done", "x")
	}

	assert.Len(t, channels.StatusChan, cap(channels.StatusChan))
}

func TestWriteEvents_FormatsBatch(t *testing.T) {
	ui, channels := newTestUI(t)

	ui.WriteEvents([]vfs.Event{
		{Kind: vfs.EventCreate, Path: "/repo/a"},
		{Kind: vfs.EventDelete, Path: "/repo/b"},
	})

	select {
	case lines := <-channels.EventChan:
		require.Len(t, lines, 2)
		assert.Equal(t, "create", lines[0].Kind)
		assert.Equal(t, "/repo/b", lines[1].Path)
		assert.Equal(t, 12, lines[0].At.Hour())
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for events")
	}
}

func TestWriteEvents_EmptyBatchIgnored(t *testing.T) {
	ui, channels := newTestUI(t)

	ui.WriteEvents(nil)

	assert.Empty(t, channels.EventChan)
}

func TestListener_DeliversAfterPhaseOnly(t *testing.T) {
	ui, channels := newTestUI(t)
	l := ui.Listener()

	batch := []vfs.Event{{Kind: vfs.EventContentChange, Path: "/repo/a"}}
	l.BeforeChanges(batch)
	assert.Empty(t, channels.EventChan)

	l.AfterChanges(batch)
	assert.Len(t, channels.EventChan, 1)
}

func TestWriteSummary_KeepsLatest(t *testing.T) {
	ui, channels := newTestUI(t)

	ui.WriteSummary("first")
	ui.WriteSummary("second")

	assert.Equal(t, "second", <-channels.SummaryChan)
}

func TestCommands_ReturnsValidChannel(t *testing.T) {
	ui, channels := newTestUI(t)

	ch := ui.Commands()
	require.NotNil(t, ch)

	channels.CommandChan <- UICommand{Type: CommandRefreshAll}

	select {
	case cmd := <-ch:
		assert.Equal(t, CommandRefreshAll, cmd.Type)
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout receiving command")
	}
}

func TestNewUIChannels_SmallEventBuffer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UI.MaxEventLines = 8

	channels := NewUIChannels(cfg)

	assert.Equal(t, 8, cap(channels.EventChan))
}
