package board

import (
	"context"
	"time"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/event"
	"github.com/Iron-Ham/gantry/internal/gesture"
	"github.com/Iron-Ham/gantry/internal/render"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// OnBarPointerDown starts dragging taskID.
func (b *Board) OnBarPointerDown(taskID string, x float64) error {
	task, err := b.gestureTarget(taskID)
	if err != nil {
		return err
	}
	if err := b.controller.BarPointerDown(task, x); err != nil {
		b.rejected(taskID, err)
		return err
	}
	b.started()
	return nil
}

// OnHandlePointerDown starts resizing one edge of taskID.
func (b *Board) OnHandlePointerDown(taskID string, edge gesture.Edge, x float64) error {
	task, err := b.gestureTarget(taskID)
	if err != nil {
		return err
	}
	if err := b.controller.HandlePointerDown(task, edge, x); err != nil {
		b.rejected(taskID, err)
		return err
	}
	b.started()
	return nil
}

// gestureTarget resolves taskID for a new gesture. Tasks with a commit in
// flight cannot be picked up until the store answers.
func (b *Board) gestureTarget(taskID string) (schedule.Task, error) {
	task, ok := b.Task(taskID)
	if !ok {
		return schedule.Task{}, errors.NewNotFoundError("task", taskID).WithCause(errors.ErrTaskNotFound)
	}
	if p, busy := b.pending[taskID]; busy {
		err := errors.NewGestureError("pointer-down ignored", errors.ErrCommitPending).
			WithTaskID(taskID).
			WithGestureID(p.GestureID)
		b.rejected(taskID, err)
		return schedule.Task{}, err
	}
	return task, nil
}

func (b *Board) started() {
	snap, _ := b.controller.Snapshot()
	b.bus.Publish(event.NewGestureStartedEvent(snap.GestureID, snap.TaskID, snap.Kind(), string(snap.Edge)))
}

func (b *Board) rejected(taskID string, err error) {
	active := ""
	if snap, ok := b.controller.Snapshot(); ok {
		active = snap.TaskID
	}
	b.bus.Publish(event.NewGestureRejectedEvent(taskID, active, err.Error()))
}

// OnPointerMove feeds a pointer position to the active gesture.
func (b *Board) OnPointerMove(x float64) (gesture.Step, error) {
	return b.controller.PointerMove(x)
}

// OnPointerCancel abandons the active gesture. It reports whether one was
// active.
func (b *Board) OnPointerCancel() bool {
	snap, ok := b.controller.PointerCancel()
	if ok {
		b.bus.Publish(event.NewGestureCanceledEvent(snap.GestureID, snap.TaskID))
	}
	return ok
}

// Release ends the active gesture and parks its outcome as pending so the
// render model keeps showing the tentative dates while the store works. It
// returns false when there was no gesture or the dates did not change; in
// that case nothing needs committing.
func (b *Board) Release() (gesture.Proposal, bool) {
	p, ok := b.controller.PointerUp()
	if !ok {
		return gesture.Proposal{}, false
	}
	if !p.Changed() {
		b.logger.WithGesture(p.GestureID).Debug("gesture released without change")
		return p, false
	}
	b.pending[p.TaskID] = p
	return p, true
}

// Resolve applies the store's answer to a released proposal. On success the
// canonical task is replaced; on failure the pending overlay is dropped so
// the task reverts, and a CommitError is returned.
func (b *Board) Resolve(p gesture.Proposal, stored schedule.Task, commitErr error) error {
	if cur, ok := b.pending[p.TaskID]; ok && cur.GestureID == p.GestureID {
		delete(b.pending, p.TaskID)
	}
	log := b.logger.WithGesture(p.GestureID).WithTask(p.TaskID)

	if commitErr != nil {
		err := errors.NewCommitError(p.TaskID, commitErr).WithDates(p.Start, p.End)
		log.Warn("commit failed, reverting", "error", commitErr.Error())
		b.bus.Publish(event.NewCommitFailedEvent(p.GestureID, p.TaskID, err))
		return err
	}

	if stored.ID == "" {
		stored, _ = b.Task(p.TaskID)
		stored = stored.WithDates(p.Start, p.End)
	}
	if err := stored.Validate(); err != nil {
		err := errors.NewCommitError(p.TaskID, err).WithDates(p.Start, p.End).WithRetryable(false)
		log.Error("store returned an invalid task", "error", err.Error())
		b.bus.Publish(event.NewCommitFailedEvent(p.GestureID, p.TaskID, err))
		return err
	}

	if !b.replace(stored) {
		log.Info("committed task no longer loaded")
	}
	log.Info("task committed",
		"start", schedule.FormatDate(stored.Start),
		"end", schedule.FormatDate(stored.End),
	)
	b.bus.Publish(event.NewTaskCommittedEvent(p.GestureID, p.TaskID, stored.Start, stored.End))
	return nil
}

// replace swaps in a new record for task.ID. The slice is copied so render
// models built from the previous snapshot stay valid.
func (b *Board) replace(task schedule.Task) bool {
	for i, t := range b.tasks {
		if t.ID != task.ID {
			continue
		}
		next := append([]schedule.Task(nil), b.tasks...)
		task.Start, task.End = schedule.Truncate(task.Start), schedule.Truncate(task.End)
		next[i] = task
		b.tasks = next
		return true
	}
	return false
}

// OnPointerUp releases the gesture and commits it through the board's
// Committer, blocking until the store answers.
func (b *Board) OnPointerUp(ctx context.Context) error {
	p, ok := b.Release()
	if !ok {
		return nil
	}
	if b.committer == nil {
		return b.Resolve(p, schedule.Task{}, errors.ErrStoreUnavailable)
	}
	stored, err := b.committer.CommitTaskDates(ctx, p.TaskID, p.Start, p.End)
	return b.Resolve(p, stored, err)
}

// OnPointerDownAt hit tests (x, y) against the current render model and
// dispatches: handles start a resize, bar bodies start a drag and phase rows
// toggle expansion. The bool is false when nothing was hit.
func (b *Board) OnPointerDownAt(x, y float64) (render.Hit, bool, error) {
	m, err := b.Render(b.clock())
	if err != nil {
		return render.Hit{}, false, err
	}
	hit, ok := m.HitTest(x, y)
	if !ok {
		return render.Hit{}, false, nil
	}

	switch hit.Kind {
	case render.HitStartHandle, render.HitEndHandle:
		err = b.OnHandlePointerDown(hit.TaskID, hit.Edge, x)
	case render.HitTaskBody:
		err = b.OnBarPointerDown(hit.TaskID, x)
	case render.HitPhaseRow:
		if b.controller.Active() {
			return hit, true, nil
		}
		err = b.TogglePhase(hit.PhaseID)
	}
	return hit, true, err
}

// SetViewMode switches the time resolution.
func (b *Board) SetViewMode(mode schedule.ViewMode) error {
	if !mode.Valid() {
		return errors.NewValidationError("unknown view mode").WithField("mode").WithValue(mode)
	}
	b.view.Mode = mode
	return nil
}

// SetZoom sets the zoom factor, clamped to the supported range.
func (b *Board) SetZoom(zoom float64) error {
	if !(zoom > 0) {
		return errors.NewValidationError("zoom must be positive").WithField("zoom").WithValue(zoom)
	}
	b.view.Zoom = schedule.ClampZoom(zoom)
	return nil
}

// ZoomIn steps to the next preset level.
func (b *Board) ZoomIn() float64 {
	b.view.Zoom = schedule.NextZoom(b.view.Zoom)
	return b.view.Zoom
}

// ZoomOut steps to the previous preset level.
func (b *Board) ZoomOut() float64 {
	b.view.Zoom = schedule.PrevZoom(b.view.Zoom)
	return b.view.Zoom
}

// TogglePhase flips a phase between expanded and collapsed.
func (b *Board) TogglePhase(phaseID string) error {
	for i, p := range b.phases {
		if p.ID != phaseID {
			continue
		}
		next := append([]schedule.Phase(nil), b.phases...)
		next[i].Expanded = !p.Expanded
		b.phases = next
		return nil
	}
	return errors.NewNotFoundError("phase", phaseID).WithCause(errors.ErrPhaseNotFound)
}

// SetPhaseExpanded sets every phase's expansion at once.
func (b *Board) SetPhaseExpanded(expanded bool) {
	next := append([]schedule.Phase(nil), b.phases...)
	for i := range next {
		next[i].Expanded = expanded
	}
	b.phases = next
}

// Today returns the board clock's current date.
func (b *Board) Today() time.Time {
	return schedule.Truncate(b.clock())
}
