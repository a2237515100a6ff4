// Package gesture implements the pointer state machine that drags and
// resizes task bars.
//
// A Controller holds at most one gesture. Pointer-down claims the slot and
// snapshots the task's dates; every pointer-move converts the pixel distance
// since the previous move into whole days and applies it to a tentative copy
// of those dates; pointer-up hands the tentative dates back as a Proposal and
// pointer-cancel throws them away. The controller never touches canonical
// task records.
package gesture

import (
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/logging"
	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/timescale"
)

// State is the controller's position in the gesture state machine.
type State int

const (
	Idle State = iota
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// Edge names which end of a bar a resize moves.
type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

// ParseEdge validates an edge name.
func ParseEdge(s string) (Edge, error) {
	switch Edge(s) {
	case EdgeStart, EdgeEnd:
		return Edge(s), nil
	}
	return "", errors.NewValidationError("unknown resize edge").WithField("edge").WithValue(s)
}

// ViewSource supplies the live view. The controller reads it on every move
// so a zoom or mode change mid-gesture takes effect on the next increment.
type ViewSource interface {
	View() schedule.ViewConfig
}

// ViewFunc adapts a function to ViewSource.
type ViewFunc func() schedule.ViewConfig

// View implements ViewSource.
func (f ViewFunc) View() schedule.ViewConfig { return f() }

// Snapshot is a read-only copy of the active gesture.
type Snapshot struct {
	GestureID string    `json:"gestureId"`
	TaskID    string    `json:"taskId"`
	State     State     `json:"-"`
	Edge      Edge      `json:"edge,omitempty"`
	AnchorX   float64   `json:"anchorX"`
	OrigStart time.Time `json:"origStart"`
	OrigEnd   time.Time `json:"origEnd"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Kind returns "drag" or "resize".
func (s Snapshot) Kind() string {
	if s.State == Resizing {
		return "resize"
	}
	return "drag"
}

// Step reports what one pointer-move did.
type Step struct {
	// Days is the increment the pointer delta rounded to.
	Days int
	// Applied is the increment actually applied after the duration floor.
	Applied int
	// Clamped is set when the floor reduced or rejected the increment.
	Clamped bool
	// Rejected is set when the increment could not move the edge at all.
	Rejected bool
	Start    time.Time
	End      time.Time
}

// Proposal is the outcome of a finished gesture, ready to commit.
type Proposal struct {
	GestureID string    `json:"gestureId"`
	TaskID    string    `json:"taskId"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	OrigStart time.Time `json:"origStart"`
	OrigEnd   time.Time `json:"origEnd"`
}

// Changed reports whether the proposal differs from the original dates.
func (p Proposal) Changed() bool {
	return !p.Start.Equal(p.OrigStart) || !p.End.Equal(p.OrigEnd)
}

// Controller is the gesture state machine. It is not safe for concurrent
// use; the owner serializes pointer events.
type Controller struct {
	view   ViewSource
	logger *logging.Logger
	active *Snapshot
}

// NewController creates an idle controller.
func NewController(view ViewSource, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Controller{
		view:   view,
		logger: logger.WithComponent("gesture"),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	if c.active == nil {
		return Idle
	}
	return c.active.State
}

// Active reports whether a gesture holds the slot.
func (c *Controller) Active() bool {
	return c.active != nil
}

// Snapshot returns the active gesture, if any.
func (c *Controller) Snapshot() (Snapshot, bool) {
	if c.active == nil {
		return Snapshot{}, false
	}
	return *c.active, true
}

// BarPointerDown starts dragging task from pointer position x.
func (c *Controller) BarPointerDown(task schedule.Task, x float64) error {
	return c.begin(task, Dragging, "", x)
}

// HandlePointerDown starts resizing one edge of task from pointer position x.
func (c *Controller) HandlePointerDown(task schedule.Task, edge Edge, x float64) error {
	if _, err := ParseEdge(string(edge)); err != nil {
		return err
	}
	return c.begin(task, Resizing, edge, x)
}

func (c *Controller) begin(task schedule.Task, state State, edge Edge, x float64) error {
	if c.active != nil {
		err := errors.NewGestureError("pointer-down ignored", errors.ErrGestureActive).
			WithTaskID(task.ID).
			WithActiveTaskID(c.active.TaskID).
			WithGestureID(c.active.GestureID)
		c.logger.WithTask(task.ID).Warn("concurrent gesture rejected",
			"active_task_id", c.active.TaskID,
			"gesture_id", c.active.GestureID,
		)
		return err
	}

	start, end := schedule.Truncate(task.Start), schedule.Truncate(task.End)
	c.active = &Snapshot{
		GestureID: uuid.NewString(),
		TaskID:    task.ID,
		State:     state,
		Edge:      edge,
		AnchorX:   x,
		OrigStart: start,
		OrigEnd:   end,
		Start:     start,
		End:       end,
	}
	c.logger.WithGesture(c.active.GestureID).WithTask(task.ID).Debug("gesture started",
		"state", state.String(),
		"edge", string(edge),
		"x", x,
	)
	return nil
}

// PointerMove applies the pixel distance since the previous pointer
// position. The anchor always moves to x, so sub-day jitter is dropped
// rather than accumulated.
func (c *Controller) PointerMove(x float64) (Step, error) {
	g := c.active
	if g == nil {
		return Step{}, errors.NewGestureError("pointer-move ignored", errors.ErrNoActiveGesture)
	}

	view := c.view.View()
	days := timescale.DaysForDelta(x-g.AnchorX, view.Mode, view.Zoom)
	g.AnchorX = x

	step := Step{Days: days, Start: g.Start, End: g.End}
	if days == 0 {
		return step, nil
	}

	switch {
	case g.State == Dragging:
		g.Start = schedule.AddDays(g.Start, days)
		g.End = schedule.AddDays(g.End, days)
		step.Applied = days
	case g.Edge == EdgeStart:
		step.Applied, step.Clamped, step.Rejected = moveEdge(&g.Start, days, schedule.AddDays(g.End, -1), true)
	default:
		step.Applied, step.Clamped, step.Rejected = moveEdge(&g.End, days, schedule.AddDays(g.Start, 1), false)
	}

	step.Start, step.End = g.Start, g.End
	if step.Clamped {
		c.logger.WithGesture(g.GestureID).Debug("resize increment limited by minimum duration",
			"days", days,
			"applied", step.Applied,
			"rejected", step.Rejected,
		)
	}
	return step, nil
}

// moveEdge shifts *edge by days without crossing limit. Start edges may not
// move later than limit; end edges may not move earlier than limit.
func moveEdge(edge *time.Time, days int, limit time.Time, isStart bool) (applied int, clamped, rejected bool) {
	proposed := schedule.AddDays(*edge, days)
	crosses := proposed.After(limit)
	if !isStart {
		crosses = proposed.Before(limit)
	}
	if !crosses {
		*edge = proposed
		return days, false, false
	}

	// The limit is only reachable if it lies in the direction of travel.
	reachable := limit.After(*edge)
	if !isStart {
		reachable = limit.Before(*edge)
	}
	if !reachable {
		return 0, true, true
	}
	applied = schedule.DaysBetween(*edge, limit)
	*edge = limit
	return applied, true, false
}

// PointerUp ends the gesture and returns its tentative dates.
func (c *Controller) PointerUp() (Proposal, bool) {
	g := c.active
	if g == nil {
		return Proposal{}, false
	}
	c.active = nil

	p := Proposal{
		GestureID: g.GestureID,
		TaskID:    g.TaskID,
		Start:     g.Start,
		End:       g.End,
		OrigStart: g.OrigStart,
		OrigEnd:   g.OrigEnd,
	}
	c.logger.WithGesture(g.GestureID).WithTask(g.TaskID).Debug("gesture released",
		"start", schedule.FormatDate(p.Start),
		"end", schedule.FormatDate(p.End),
		"changed", p.Changed(),
	)
	return p, true
}

// PointerCancel ends the gesture and discards its tentative dates.
func (c *Controller) PointerCancel() (Snapshot, bool) {
	g := c.active
	if g == nil {
		return Snapshot{}, false
	}
	c.active = nil
	c.logger.WithGesture(g.GestureID).WithTask(g.TaskID).Debug("gesture canceled")
	return *g, true
}
