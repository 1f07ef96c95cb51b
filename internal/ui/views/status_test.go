package views

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Cyclone1070/lazyvfs/internal/ui/models"
)

func TestRenderStatus_Refreshing(t *testing.T) {
	state := models.State{
		StatusPhase:   "refreshing",
		StatusMessage: "/repo",
		Spinner:       createTestSpinner(),
	}

	result := RenderStatus(state)

	assert.Contains(t, result, "/repo")
	assert.NotEmpty(t, result)
}

func TestRenderStatus_RefreshingDots(t *testing.T) {
	state := models.State{
		StatusPhase: "refreshing",
		DotCount:    2,
		Spinner:     createTestSpinner(),
	}

	assert.Contains(t, RenderStatus(state), "Refreshing..")
}

func TestRenderStatus_Done(t *testing.T) {
	state := models.State{
		StatusPhase:   "done",
		StatusMessage: "3 changes",
	}

	result := RenderStatus(state)

	assert.Contains(t, result, "✔")
	assert.Contains(t, result, "3 changes")
}

func TestRenderStatus_Error(t *testing.T) {
	result := RenderStatus(models.State{StatusPhase: "error", StatusMessage: "stat failed"})
	assert.Contains(t, result, "✘")
	assert.Contains(t, result, "stat failed")
}

func TestRenderStatus_DefaultWatching(t *testing.T) {
	result := RenderStatus(models.State{Root: "/repo", Dropped: 4})

	assert.Contains(t, result, "Watching")
	assert.Contains(t, result, "/repo")
	assert.Contains(t, result, "4 dropped")
}
