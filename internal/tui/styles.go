package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/gantry/internal/render"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// Styles groups every lipgloss style the timeline uses.
type Styles struct {
	Title    lipgloss.Style
	Band     lipgloss.Style
	Tick     lipgloss.Style
	Label    lipgloss.Style
	Phase    lipgloss.Style
	Selected lipgloss.Style
	Grid     lipgloss.Style
	Today    lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns styles built on the shared render palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(render.ColorActive)),
		Band:     lipgloss.NewStyle().Bold(true),
		Tick:     lipgloss.NewStyle().Faint(true),
		Label:    lipgloss.NewStyle(),
		Phase:    lipgloss.NewStyle().Bold(true),
		Selected: lipgloss.NewStyle().Reverse(true),
		Grid:     lipgloss.NewStyle().Faint(true),
		Today:    lipgloss.NewStyle().Foreground(lipgloss.Color(render.ColorToday)).Bold(true),
		Status:   lipgloss.NewStyle().Faint(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(render.ColorDelayed)),
		Help:     lipgloss.NewStyle().Faint(true),
	}
}

// cellStyle returns the style of one timeline cell.
func (s Styles) cellStyle(c cell) lipgloss.Style {
	switch c.kind {
	case cellGrid:
		return s.Grid
	case cellToday:
		return s.Today
	case cellPhase:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(render.ColorPhase))
	case cellBar, cellProgress:
		color := render.PriorityColor(c.priority)
		switch {
		case c.active:
			color = render.ColorActive
		case c.delayed:
			color = render.ColorDelayed
		}
		st := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		if c.pending {
			st = st.Faint(true)
		}
		return st
	}
	return lipgloss.NewStyle()
}

// priorityStyle colors text for a priority.
func priorityStyle(p schedule.Priority) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(render.PriorityColor(p)))
}
