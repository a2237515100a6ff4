package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/Iron-Ham/gantry/internal/board"
	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/event"
	"github.com/Iron-Ham/gantry/internal/gesture"
	"github.com/Iron-Ham/gantry/internal/logging"
	"github.com/Iron-Ham/gantry/internal/render"
	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/store"
	"github.com/Iron-Ham/gantry/internal/timescale"
)

// titleLines is the number of lines above the canvas.
const titleLines = 1

// Options configures the timeline model.
type Options struct {
	Store        store.Store
	ProjectID    string
	Mode         schedule.ViewMode
	Zoom         float64
	MinRangeDays int
	// CellPixels is how many timeline pixels one terminal column covers.
	CellPixels    float64
	LabelWidth    int
	RowHeight     float64
	CommitTimeout time.Duration
	Width         int
	Height        int
	Logger        *logging.Logger
	Clock         func() time.Time
}

// status is the notification line. Bus handlers write it during Update, so
// it lives behind a pointer shared by every copy of the model.
type status struct {
	text    string
	isError bool
}

func (s *status) set(text string, isError bool) {
	s.text, s.isError = text, isError
}

// Model is the Bubble Tea model of one project's timeline.
type Model struct {
	opts     Options
	board    *board.Board
	keys     KeyMap
	help     help.Model
	styles   Styles
	canvas   *Canvas
	viewport Viewport
	rendered render.Model
	status   *status
	logger   *logging.Logger

	dateInput textinput.Model
	prompting bool

	selected   int
	loaded     bool
	mouseDrag  bool
	// dragOrigin is the pixel where the mouse drag started and dragDays the
	// whole days already forwarded to the board.
	dragOrigin float64
	dragDays   int
	fatal      error
	quitting   bool
	subscribed []string
}

// NewModel creates the model. The project is loaded by Init.
func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.CellPixels <= 0 {
		opts.CellPixels = 10
	}
	if opts.LabelWidth <= 0 {
		opts.LabelWidth = 24
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = 5 * time.Second
	}

	layout := render.DefaultLayout()
	if opts.RowHeight > 0 {
		layout.RowHeight = opts.RowHeight
	}

	b := board.New(board.Options{
		Mode:         opts.Mode,
		Zoom:         opts.Zoom,
		MinRangeDays: opts.MinRangeDays,
		Layout:       layout,
		Committer:    opts.Store,
		Logger:       opts.Logger,
		Clock:        opts.Clock,
	})

	styles := DefaultStyles()
	m := Model{
		opts:   opts,
		board:  b,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		styles: styles,
		canvas: NewCanvas(styles),
		status: &status{},
		logger: opts.Logger.WithComponent("tui"),

		dateInput: newDateInput(),
	}
	m.viewport = Viewport{CellPixels: opts.CellPixels, LabelWidth: opts.LabelWidth}
	m.resize(opts.Width, opts.Height)
	m.subscribe(b.Bus())
	return m
}

// subscribe turns board events into status line notifications.
func (m *Model) subscribe(bus *event.Bus) {
	st := m.status
	m.subscribed = append(m.subscribed,
		bus.Subscribe(event.TypeTaskCommitted, func(e event.Event) {
			ev := e.(event.TaskCommittedEvent)
			st.set(fmt.Sprintf("saved %s: %s → %s", ev.TaskID,
				schedule.FormatDate(ev.Start), schedule.FormatDate(ev.End)), false)
		}),
		bus.Subscribe(event.TypeCommitFailed, func(e event.Event) {
			ev := e.(event.CommitFailedEvent)
			st.set(fmt.Sprintf("could not save %s, reverted: %v", ev.TaskID, ev.Err), true)
		}),
		bus.Subscribe(event.TypeGestureRejected, func(e event.Event) {
			ev := e.(event.GestureRejectedEvent)
			st.set(ev.Reason, true)
		}),
		bus.Subscribe(event.TypeTaskExcluded, func(e event.Event) {
			ev := e.(event.TaskExcludedEvent)
			st.set(fmt.Sprintf("skipped task %s: %v", ev.TaskID, ev.Err), true)
		}),
	)
}

// Close drops the model's event subscriptions.
func (m Model) Close() {
	for _, id := range m.subscribed {
		m.board.Bus().Unsubscribe(id)
	}
}

// Board exposes the underlying board.
func (m Model) Board() *board.Board { return m.board }

func (m Model) Init() tea.Cmd {
	return loadCmd(m.opts.Store, m.opts.ProjectID, m.opts.CommitTimeout)
}

func (m *Model) resize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = max(0, height-titleLines-2)
	m.help.Width = width
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case snapshotMsg:
		return m.handleSnapshot(msg)

	case StoreChangedMsg:
		m.logger.Debug("store changed, reloading", "path", msg.Path)
		return m, loadCmd(m.opts.Store, m.opts.ProjectID, m.opts.CommitTimeout)

	case commitResultMsg:
		_ = m.board.Resolve(msg.proposal, msg.task, msg.err)
		m.rerender()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleSnapshot(msg snapshotMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if !m.loaded {
			m.fatal = msg.err
			return m, tea.Quit
		}
		m.status.set("reload failed: "+msg.err.Error(), true)
		return m, nil
	}

	if err := m.board.Load(msg.snap.Project, msg.snap.Tasks, msg.snap.Phases); err != nil {
		if !m.loaded {
			m.fatal = err
			return m, tea.Quit
		}
		m.status.set(err.Error(), true)
		return m, nil
	}
	first := !m.loaded
	m.loaded = true
	m.rerender()
	if first {
		m.scrollToToday()
	}
	return m, nil
}

// Err returns the error that ended the program, if any.
func (m Model) Err() error { return m.fatal }

func (m *Model) rerender() {
	rendered, err := m.board.Render(m.board.Today())
	if err != nil {
		m.status.set(err.Error(), true)
		return
	}
	m.rendered = rendered
	m.selected = min(m.selected, len(rendered.Rows)-1)
	m.selected = max(m.selected, 0)
	m.viewport = m.viewport.EnsureRowVisible(m.selected)
}

func (m *Model) scrollToToday() {
	if m.rendered.Today == nil {
		m.status.set("today is outside the timeline", false)
		return
	}
	m.viewport = m.viewport.CenterOn(m.rendered.Today.X)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.loaded {
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	if m.prompting {
		return m.handlePrompt(msg)
	}

	m.status.set("", false)
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.selected = max(0, m.selected-1)
	case key.Matches(msg, m.keys.Down):
		m.selected = min(len(m.rendered.Rows)-1, m.selected+1)
	case key.Matches(msg, m.keys.ScrollLeft):
		m.viewport.ScrollCols = max(0, m.viewport.ScrollCols-m.viewport.Columns()/4-1)
	case key.Matches(msg, m.keys.ScrollRight):
		m.viewport.ScrollCols += m.viewport.Columns()/4 + 1
	case key.Matches(msg, m.keys.DayView):
		_ = m.board.SetViewMode(schedule.ViewDay)
	case key.Matches(msg, m.keys.WeekView):
		_ = m.board.SetViewMode(schedule.ViewWeek)
	case key.Matches(msg, m.keys.MonthView):
		_ = m.board.SetViewMode(schedule.ViewMonth)
	case key.Matches(msg, m.keys.ZoomIn):
		m.board.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.board.ZoomOut()
	case key.Matches(msg, m.keys.Today):
		m.rerender()
		m.scrollToToday()
		return m, nil
	case key.Matches(msg, m.keys.GoToDate):
		return m, m.openPrompt()
	case key.Matches(msg, m.keys.Toggle):
		if row, ok := m.selectedRow(); ok && row.Kind == schedule.RowPhase.String() {
			_ = m.board.TogglePhase(row.ID)
		}
	case key.Matches(msg, m.keys.ExpandAll):
		m.board.SetPhaseExpanded(true)
	case key.Matches(msg, m.keys.CollapseAll):
		m.board.SetPhaseExpanded(false)
	case key.Matches(msg, m.keys.Cancel):
		if m.board.OnPointerCancel() {
			m.mouseDrag = false
			m.status.set("drag canceled", false)
		}
	case key.Matches(msg, m.keys.Reload):
		cmd = loadCmd(m.opts.Store, m.opts.ProjectID, m.opts.CommitTimeout)
	case key.Matches(msg, m.keys.MoveEarlier):
		cmd = m.nudge(nil, -1)
	case key.Matches(msg, m.keys.MoveLater):
		cmd = m.nudge(nil, 1)
	case key.Matches(msg, m.keys.Shrink):
		end := gesture.EdgeEnd
		cmd = m.nudge(&end, -1)
	case key.Matches(msg, m.keys.Grow):
		end := gesture.EdgeEnd
		cmd = m.nudge(&end, 1)
	}
	m.rerender()
	return m, cmd
}

func (m Model) selectedRow() (render.RowInfo, bool) {
	if m.selected < 0 || m.selected >= len(m.rendered.Rows) {
		return render.RowInfo{}, false
	}
	return m.rendered.Rows[m.selected], true
}

// nudge runs a one-day gesture on the selected task: a drag when edge is
// nil, otherwise a resize of that edge.
func (m *Model) nudge(edge *gesture.Edge, days int) tea.Cmd {
	row, ok := m.selectedRow()
	if !ok || row.Kind != schedule.RowTask.String() {
		return nil
	}
	view := m.board.View()
	step := timescale.DayWidth(view.Mode, view.Zoom) * float64(days)

	var err error
	if edge == nil {
		err = m.board.OnBarPointerDown(row.ID, 0)
	} else {
		err = m.board.OnHandlePointerDown(row.ID, *edge, 0)
	}
	if err != nil {
		return nil
	}
	if st, err := m.board.OnPointerMove(step); err == nil && st.Clamped {
		m.status.set(errors.ErrMinimumDuration.Error(), true)
	}
	return m.release()
}

// release ends the active gesture and starts its commit.
func (m *Model) release() tea.Cmd {
	m.mouseDrag = false
	p, ok := m.board.Release()
	if !ok {
		return nil
	}
	if m.opts.Store == nil {
		_ = m.board.Resolve(p, schedule.Task{}, errors.ErrStoreUnavailable)
		return nil
	}
	m.status.set("saving…", false)
	return commitCmd(m.opts.Store, p, m.opts.CommitTimeout)
}

// dragTo forwards the pointer to the board in whole days measured from the
// press. The board rounds every move on its own, so passing each terminal
// column through would drop or add distance depending on the day width. It
// reports whether the board saw a move.
func (m *Model) dragTo(x float64) bool {
	view := m.board.View()
	days := timescale.DaysForDelta(x-m.dragOrigin, view.Mode, view.Zoom)
	if days == m.dragDays {
		return false
	}
	snapped := m.dragOrigin + float64(days)*timescale.DayWidth(view.Mode, view.Zoom)
	if _, err := m.board.OnPointerMove(snapped); err != nil {
		m.mouseDrag = false
		return false
	}
	m.dragDays = days
	return true
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.selected = max(0, m.selected-1)
		m.rerender()
		return m, nil
	case msg.Button == tea.MouseButtonWheelDown:
		m.selected = min(len(m.rendered.Rows)-1, m.selected+1)
		m.rerender()
		return m, nil
	}

	col := msg.X - m.viewport.LabelWidth
	x := m.viewport.PixelAt(col)

	var cmd tea.Cmd
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		row, ok := m.viewport.RowAt(msg.Y - titleLines)
		if !ok || row >= len(m.rendered.Rows) {
			return m, nil
		}
		m.status.set("", false)
		m.selected = row
		info := m.rendered.Rows[row]
		if col < 0 {
			if info.Kind == schedule.RowPhase.String() {
				_ = m.board.TogglePhase(info.ID)
			}
			break
		}
		y := info.Y + info.H/2
		hit, found, err := m.board.OnPointerDownAt(x, y)
		if err == nil && found && hit.Kind != render.HitPhaseRow {
			m.mouseDrag = true
			m.dragOrigin, m.dragDays = x, 0
		}

	case tea.MouseActionMotion:
		if !m.mouseDrag {
			return m, nil
		}
		if !m.dragTo(x) {
			return m, nil
		}

	case tea.MouseActionRelease:
		if !m.mouseDrag {
			return m, nil
		}
		m.dragTo(x)
		if !m.mouseDrag {
			return m, nil
		}
		cmd = m.release()
	}
	m.rerender()
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.fatal != nil {
		return m.styles.Error.Render("error: "+m.fatal.Error()) + "\n"
	}
	if !m.loaded {
		return "loading…\n"
	}

	var b strings.Builder
	b.WriteString(m.fit(m.titleLine()))
	b.WriteByte('\n')
	for _, line := range m.canvas.Draw(m.rendered, m.viewport, m.selected) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if m.prompting {
		b.WriteString(m.fit(m.dateInput.View()))
	} else {
		b.WriteString(m.fit(m.statusLine()))
	}
	b.WriteByte('\n')
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	return b.String()
}

// fit truncates a styled line to the terminal width.
func (m Model) fit(line string) string {
	if m.viewport.Width <= 0 {
		return line
	}
	return ansi.Truncate(line, m.viewport.Width, "…")
}

func (m Model) titleLine() string {
	view := m.board.View()
	title := fmt.Sprintf("%s  %s · %d%%", m.board.Project().Name, view.Mode, int(view.Zoom*100+0.5))
	if snap, ok := m.board.Gesture(); ok {
		title += fmt.Sprintf("  %s %s → %s", snap.Kind(),
			schedule.FormatDate(snap.Start), schedule.FormatDate(snap.End))
	}
	return m.styles.Title.Render(title)
}

func (m Model) statusLine() string {
	if m.status.text != "" {
		if m.status.isError {
			return m.styles.Error.Render(m.status.text)
		}
		return m.styles.Status.Render(m.status.text)
	}
	row, ok := m.selectedRow()
	if !ok {
		return ""
	}
	if row.Kind == schedule.RowTask.String() {
		if t, found := m.board.Task(row.ID); found {
			line := fmt.Sprintf("%s  %s → %s  %d%%  ", t.Title,
				schedule.FormatDate(t.Start), schedule.FormatDate(t.End), t.Progress)
			return m.styles.Status.Render(line) + priorityStyle(t.Priority).Render(string(t.Priority))
		}
	}
	return m.styles.Status.Render(row.Label)
}
