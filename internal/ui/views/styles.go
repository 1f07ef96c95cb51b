package views

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("63")
	ColorDim     = lipgloss.Color("241")
	ColorCreate  = lipgloss.Color("42")
	ColorDelete  = lipgloss.Color("203")
	ColorChange  = lipgloss.Color("214")
	ColorRename  = lipgloss.Color("117")

	StatusDefaultStyle    = lipgloss.NewStyle().Padding(0, 1)
	StatusRefreshingStyle = StatusDefaultStyle.Foreground(ColorPrimary)
	StatusDoneStyle       = StatusDefaultStyle.Foreground(ColorCreate)
	StatusErrorStyle      = StatusDefaultStyle.Foreground(ColorDelete)

	TimestampStyle  = lipgloss.NewStyle().Foreground(ColorDim)
	HelpStyle       = lipgloss.NewStyle().Foreground(ColorDim).Padding(0, 1)
	SummaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)
)

// SetPrimaryColor recolours the accent styles.
func SetPrimaryColor(c string) {
	if c == "" {
		return
	}
	ColorPrimary = lipgloss.Color(c)
	StatusRefreshingStyle = StatusDefaultStyle.Foreground(ColorPrimary)
	SummaryBoxStyle = SummaryBoxStyle.BorderForeground(ColorPrimary)
}

func kindStyle(kind string) lipgloss.Style {
	switch kind {
	case "create":
		return lipgloss.NewStyle().Foreground(ColorCreate).Bold(true)
	case "delete":
		return lipgloss.NewStyle().Foreground(ColorDelete).Bold(true)
	case "content_change":
		return lipgloss.NewStyle().Foreground(ColorChange).Bold(true)
	case "rename":
		return lipgloss.NewStyle().Foreground(ColorRename).Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}
