package services

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"
)

const defaultWrapWidth = 80

// MarkdownRenderer turns markdown into terminal output.
type MarkdownRenderer interface {
	Render(content string, width int) (string, error)
}

// GlamourRenderer renders with glamour, keeping one renderer per wrap width.
type GlamourRenderer struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewGlamourRenderer creates a renderer for a standard glamour style
// ("dark", "light", "notty", ...). An empty style means auto-detect.
func NewGlamourRenderer(style string) *GlamourRenderer {
	return &GlamourRenderer{
		style:     style,
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

func (g *GlamourRenderer) Render(content string, width int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.renderers[width]
	if !ok {
		styleOpt := glamour.WithAutoStyle()
		if g.style != "" {
			styleOpt = glamour.WithStandardStyle(g.style)
		}
		var err error
		r, err = glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
		if err != nil {
			return "", fmt.Errorf("create markdown renderer: %w", err)
		}
		g.renderers[width] = r
	}
	return r.Render(content)
}

// RenderMarkdown renders content at width. A nil renderer returns the
// content unchanged.
func RenderMarkdown(content string, width int, renderer MarkdownRenderer) (string, error) {
	if renderer == nil {
		return content, nil
	}
	if width <= 0 {
		width = defaultWrapWidth
	}
	return renderer.Render(content, width)
}
