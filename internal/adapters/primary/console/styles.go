package console

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lorrc/support-desk/internal/core/domain"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	errorColor     = lipgloss.Color("#EF4444") // Red
	warningColor   = lipgloss.Color("#F59E0B") // Amber
)

// styles are bound to one renderer so color output follows the writer.
type styles struct {
	title    lipgloss.Style
	menu     lipgloss.Style
	prompt   lipgloss.Style
	success  lipgloss.Style
	urgent   lipgloss.Style
	warning  lipgloss.Style
	muted    lipgloss.Style
	assigned lipgloss.Style

	statusOpen       lipgloss.Style
	statusInProgress lipgloss.Style
	statusResolved   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(primaryColor),
		menu: r.NewStyle().
			Foreground(lipgloss.Color("#E0E0E0")),
		prompt: r.NewStyle().
			Foreground(primaryColor),
		success: r.NewStyle().
			Bold(true).
			Foreground(secondaryColor),
		urgent: r.NewStyle().
			Bold(true).
			Foreground(errorColor),
		warning: r.NewStyle().
			Foreground(warningColor),
		muted: r.NewStyle().
			Foreground(mutedColor),
		assigned: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")),

		statusOpen: r.NewStyle().
			Foreground(warningColor),
		statusInProgress: r.NewStyle().
			Foreground(primaryColor),
		statusResolved: r.NewStyle().
			Foreground(secondaryColor),
	}
}

func (s styles) forStatus(status domain.TicketStatus) lipgloss.Style {
	switch status {
	case domain.StatusInProgress:
		return s.statusInProgress
	case domain.StatusResolved:
		return s.statusResolved
	default:
		return s.statusOpen
	}
}
