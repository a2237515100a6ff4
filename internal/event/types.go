package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "gesture.started", "task.committed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeGestureStarted  = "gesture.started"
	TypeGestureRejected = "gesture.rejected"
	TypeGestureCanceled = "gesture.canceled"
	TypeTaskCommitted   = "task.committed"
	TypeCommitFailed    = "commit.failed"
	TypeTasksLoaded     = "tasks.loaded"
	TypeTaskExcluded    = "task.excluded"
)

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Gesture Events
// -----------------------------------------------------------------------------

// GestureStartedEvent is emitted when a pointer-down claims the gesture slot.
type GestureStartedEvent struct {
	baseEvent
	GestureID string
	TaskID    string
	Kind      string // "drag" or "resize"
	Edge      string // "start" or "end" for resizes, empty for drags
}

// NewGestureStartedEvent creates a GestureStartedEvent.
func NewGestureStartedEvent(gestureID, taskID, kind, edge string) GestureStartedEvent {
	return GestureStartedEvent{
		baseEvent: newBaseEvent(TypeGestureStarted),
		GestureID: gestureID,
		TaskID:    taskID,
		Kind:      kind,
		Edge:      edge,
	}
}

// GestureRejectedEvent is emitted when a pointer-down arrives while another
// gesture holds the slot, or targets a task whose commit is still pending.
type GestureRejectedEvent struct {
	baseEvent
	TaskID       string
	ActiveTaskID string
	Reason       string
}

// NewGestureRejectedEvent creates a GestureRejectedEvent.
func NewGestureRejectedEvent(taskID, activeTaskID, reason string) GestureRejectedEvent {
	return GestureRejectedEvent{
		baseEvent:    newBaseEvent(TypeGestureRejected),
		TaskID:       taskID,
		ActiveTaskID: activeTaskID,
		Reason:       reason,
	}
}

// GestureCanceledEvent is emitted when a gesture is abandoned without commit.
type GestureCanceledEvent struct {
	baseEvent
	GestureID string
	TaskID    string
}

// NewGestureCanceledEvent creates a GestureCanceledEvent.
func NewGestureCanceledEvent(gestureID, taskID string) GestureCanceledEvent {
	return GestureCanceledEvent{
		baseEvent: newBaseEvent(TypeGestureCanceled),
		GestureID: gestureID,
		TaskID:    taskID,
	}
}

// -----------------------------------------------------------------------------
// Commit Events
// -----------------------------------------------------------------------------

// TaskCommittedEvent is emitted after the store accepted new task dates and
// the canonical record was replaced.
type TaskCommittedEvent struct {
	baseEvent
	GestureID string
	TaskID    string
	Start     time.Time
	End       time.Time
}

// NewTaskCommittedEvent creates a TaskCommittedEvent.
func NewTaskCommittedEvent(gestureID, taskID string, start, end time.Time) TaskCommittedEvent {
	return TaskCommittedEvent{
		baseEvent: newBaseEvent(TypeTaskCommitted),
		GestureID: gestureID,
		TaskID:    taskID,
		Start:     start,
		End:       end,
	}
}

// CommitFailedEvent is emitted when the store rejected a proposal and the
// task reverted to its last canonical dates.
type CommitFailedEvent struct {
	baseEvent
	GestureID string
	TaskID    string
	Err       error
}

// NewCommitFailedEvent creates a CommitFailedEvent.
func NewCommitFailedEvent(gestureID, taskID string, err error) CommitFailedEvent {
	return CommitFailedEvent{
		baseEvent: newBaseEvent(TypeCommitFailed),
		GestureID: gestureID,
		TaskID:    taskID,
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Ingestion Events
// -----------------------------------------------------------------------------

// TasksLoadedEvent is emitted after a project snapshot was ingested.
type TasksLoadedEvent struct {
	baseEvent
	ProjectID string
	Loaded    int
	Excluded  int
	Phases    int
}

// NewTasksLoadedEvent creates a TasksLoadedEvent.
func NewTasksLoadedEvent(projectID string, loaded, excluded, phases int) TasksLoadedEvent {
	return TasksLoadedEvent{
		baseEvent: newBaseEvent(TypeTasksLoaded),
		ProjectID: projectID,
		Loaded:    loaded,
		Excluded:  excluded,
		Phases:    phases,
	}
}

// TaskExcludedEvent is emitted for every task dropped at ingestion.
type TaskExcludedEvent struct {
	baseEvent
	TaskID string
	Err    error
}

// NewTaskExcludedEvent creates a TaskExcludedEvent.
func NewTaskExcludedEvent(taskID string, err error) TaskExcludedEvent {
	return TaskExcludedEvent{
		baseEvent: newBaseEvent(TypeTaskExcluded),
		TaskID:    taskID,
		Err:       err,
	}
}
