package views

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
)

type MockMarkdownRenderer struct {
	RenderFunc func(string, int) (string, error)
}

func (m *MockMarkdownRenderer) Render(content string, width int) (string, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(content, width)
	}
	return content, nil
}

func createTestViewport() viewport.Model {
	return viewport.New(80, 10)
}

func createTestSpinner() spinner.Model {
	return spinner.New()
}
