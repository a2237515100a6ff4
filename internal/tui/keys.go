package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the timeline's key bindings. It implements help.KeyMap.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	ScrollLeft  key.Binding
	ScrollRight key.Binding
	MoveEarlier key.Binding
	MoveLater   key.Binding
	Shrink      key.Binding
	Grow        key.Binding
	DayView     key.Binding
	WeekView    key.Binding
	MonthView   key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	Today       key.Binding
	GoToDate    key.Binding
	Toggle      key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Cancel      key.Binding
	Reload      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		ScrollLeft: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "scroll left"),
		),
		ScrollRight: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "scroll right"),
		),
		MoveEarlier: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "move task earlier"),
		),
		MoveLater: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "move task later"),
		),
		Shrink: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "end a day earlier"),
		),
		Grow: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "end a day later"),
		),
		DayView: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "day view"),
		),
		WeekView: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "week view"),
		),
		MonthView: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "month view"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "zoom out"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		GoToDate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "go to date"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "expand/collapse"),
		),
		ExpandAll: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "expand all"),
		),
		CollapseAll: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "collapse all"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel drag"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.DayView, k.WeekView, k.MonthView, k.ZoomIn, k.ZoomOut, k.Today, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.ScrollLeft, k.ScrollRight},
		{k.MoveEarlier, k.MoveLater, k.Shrink, k.Grow, k.Cancel},
		{k.DayView, k.WeekView, k.MonthView, k.ZoomIn, k.ZoomOut, k.Today, k.GoToDate},
		{k.Toggle, k.ExpandAll, k.CollapseAll, k.Reload, k.Help, k.Quit},
	}
}
