package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/timescale"
)

func newDateInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "go to date: "
	ti.Placeholder = "YYYY-MM-DD"
	ti.CharLimit = len(time.DateOnly)
	ti.Width = len(time.DateOnly) + 1
	return ti
}

func (m *Model) openPrompt() tea.Cmd {
	m.prompting = true
	m.dateInput.SetValue("")
	return m.dateInput.Focus()
}

func (m *Model) closePrompt() {
	m.prompting = false
	m.dateInput.Blur()
}

// handlePrompt routes keys to the date input while it is open.
func (m Model) handlePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.dateInput.Value())
		m.closePrompt()
		d, err := schedule.ParseDate(value)
		if err != nil {
			m.status.set(fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", value), true)
			return m, nil
		}
		m.scrollToDate(d)
		return m, nil
	}

	var cmd tea.Cmd
	m.dateInput, cmd = m.dateInput.Update(msg)
	return m, cmd
}

// scrollToDate centers the viewport on d when it is inside the view range.
func (m *Model) scrollToDate(d time.Time) {
	view := m.board.View()
	if d.Before(view.Start) || d.After(view.End) {
		m.status.set(fmt.Sprintf("%s is outside the timeline (%s to %s)", schedule.FormatDate(d),
			schedule.FormatDate(view.Start), schedule.FormatDate(view.End)), true)
		return
	}
	scale, err := timescale.ForView(view)
	if err != nil {
		m.status.set(err.Error(), true)
		return
	}
	m.viewport = m.viewport.CenterOn(scale.ToPixel(d) + scale.DayWidth()/2)
}
