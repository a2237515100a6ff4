// Package board owns one project's timeline session: the canonical task and
// phase snapshot, the view, the gesture controller and the commits that are
// still in flight. Every pointer and view event enters through a Board
// method; presentation layers only read render models back out.
//
// A Board is not safe for concurrent use. Callers serialize events, the
// terminal UI by running on the Bubble Tea loop and the HTTP API with a
// mutex per board.
package board

import (
	"context"
	"time"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/event"
	"github.com/Iron-Ham/gantry/internal/gesture"
	"github.com/Iron-Ham/gantry/internal/logging"
	"github.com/Iron-Ham/gantry/internal/render"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// Committer persists new task dates. It returns the stored task.
type Committer interface {
	CommitTaskDates(ctx context.Context, taskID string, start, end time.Time) (schedule.Task, error)
}

// Options configures a Board.
type Options struct {
	Mode         schedule.ViewMode
	Zoom         float64
	MinRangeDays int
	Layout       render.Layout
	Committer    Committer
	Bus          *event.Bus
	Logger       *logging.Logger
	// Clock returns today's date for OnPointerDownAt hit testing. Defaults
	// to time.Now.
	Clock func() time.Time
}

// Board is the owning store of one project's presentation session.
type Board struct {
	project schedule.Project
	tasks   []schedule.Task
	phases  []schedule.Phase
	view    schedule.ViewConfig
	minDays int
	layout  render.Layout

	controller *gesture.Controller
	pending    map[string]gesture.Proposal

	committer Committer
	bus       *event.Bus
	base      *logging.Logger
	logger    *logging.Logger
	clock     func() time.Time
}

// New creates an empty board. Load fills it.
func New(opts Options) *Board {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus(opts.Logger)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if !opts.Mode.Valid() {
		opts.Mode = schedule.ViewWeek
	}
	if opts.Zoom == 0 {
		opts.Zoom = 1
	}
	if opts.Layout.RowHeight <= 0 {
		opts.Layout = render.DefaultLayout()
	}

	b := &Board{
		view:      schedule.ViewConfig{Mode: opts.Mode, Zoom: schedule.ClampZoom(opts.Zoom)},
		minDays:   opts.MinRangeDays,
		layout:    opts.Layout,
		pending:   make(map[string]gesture.Proposal),
		committer: opts.Committer,
		bus:       opts.Bus,
		base:      opts.Logger.WithComponent("board"),
		logger:    opts.Logger.WithComponent("board"),
		clock:     opts.Clock,
	}
	b.controller = gesture.NewController(b, opts.Logger)
	return b
}

// Load replaces the snapshot with project, tasks and phases. Tasks that fail
// validation are dropped, logged and announced with a task.excluded event;
// they never reach the render model.
func (b *Board) Load(project schedule.Project, tasks []schedule.Task, phases []schedule.Phase) error {
	if err := project.Validate(); err != nil {
		return errors.Wrapf(err, "load project %s", project.ID)
	}

	b.project = project
	b.logger = b.base.WithProject(project.ID)

	kept := make([]schedule.Task, 0, len(tasks))
	excluded := 0
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			excluded++
			b.logger.WithTask(t.ID).Warn("task excluded", "error", err.Error())
			b.bus.Publish(event.NewTaskExcludedEvent(t.ID, err))
			continue
		}
		t.Start, t.End = schedule.Truncate(t.Start), schedule.Truncate(t.End)
		kept = append(kept, t)
	}
	b.tasks = kept
	b.phases = append([]schedule.Phase(nil), phases...)
	b.fitRange()

	// A reload can drop the task under the pointer.
	if snap, ok := b.controller.Snapshot(); ok {
		if _, found := b.Task(snap.TaskID); !found {
			b.controller.PointerCancel()
			b.bus.Publish(event.NewGestureCanceledEvent(snap.GestureID, snap.TaskID))
		}
	}

	b.logger.Info("tasks loaded",
		"loaded", len(kept),
		"excluded", excluded,
		"phases", len(b.phases),
	)
	b.bus.Publish(event.NewTasksLoadedEvent(project.ID, len(kept), excluded, len(b.phases)))
	return nil
}

// fitRange sets the view range to the project range, widened to the
// minimum and to every loaded task.
func (b *Board) fitRange() {
	p := b.project
	if p.Start.IsZero() {
		p.Start = b.clock()
		if len(b.tasks) > 0 {
			p.Start = b.tasks[0].Start
		}
	}
	if p.End.IsZero() {
		p.End = p.Start
	}
	start, end := p.VisibleRange(b.minDays)
	for _, t := range b.tasks {
		if t.Start.Before(start) {
			start = t.Start
		}
		if t.End.After(end) {
			end = t.End
		}
	}
	b.view.Start, b.view.End = start, end
}

// View returns the live view. It also lets the board act as the gesture
// controller's view source.
func (b *Board) View() schedule.ViewConfig {
	return b.view
}

// Project returns the loaded project.
func (b *Board) Project() schedule.Project {
	return b.project
}

// Tasks returns a copy of the canonical tasks.
func (b *Board) Tasks() []schedule.Task {
	return append([]schedule.Task(nil), b.tasks...)
}

// Phases returns a copy of the phases.
func (b *Board) Phases() []schedule.Phase {
	return append([]schedule.Phase(nil), b.phases...)
}

// Task returns the canonical record of id.
func (b *Board) Task(id string) (schedule.Task, bool) {
	for _, t := range b.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return schedule.Task{}, false
}

// Gesture returns the active gesture, if any.
func (b *Board) Gesture() (gesture.Snapshot, bool) {
	return b.controller.Snapshot()
}

// Pending returns the proposals awaiting a store answer, keyed by task ID.
func (b *Board) Pending() map[string]gesture.Proposal {
	out := make(map[string]gesture.Proposal, len(b.pending))
	for k, v := range b.pending {
		out[k] = v
	}
	return out
}

// Bus returns the board's event bus.
func (b *Board) Bus() *event.Bus {
	return b.bus
}

// Render builds the render model for today.
func (b *Board) Render(today time.Time) (render.Model, error) {
	in := render.Input{
		Tasks:  b.tasks,
		Phases: b.phases,
		View:   b.view,
		Today:  today,
		Layout: b.layout,
	}
	if snap, ok := b.controller.Snapshot(); ok {
		in.Gesture = &snap
	}
	if len(b.pending) > 0 {
		in.Pending = make(map[string]render.Dates, len(b.pending))
		for id, p := range b.pending {
			in.Pending[id] = render.Dates{Start: p.Start, End: p.End}
		}
	}
	return render.Build(in)
}
