// Package schedule holds the project, phase and task records the timeline is
// drawn from, plus the civil-date helpers every other package uses.
//
// Dates are civil dates: a time.Time at UTC midnight. Day granularity is the
// only granularity the timeline knows about.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/gantry/internal/errors"
)

// Priority ranks a task. It only affects presentation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority accepts the English names and the Spanish labels used by
// older exports (baja, media, alta, crítica). Empty input is medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "baja":
		return PriorityLow, nil
	case "", "medium", "media":
		return PriorityMedium, nil
	case "high", "alta":
		return PriorityHigh, nil
	case "critical", "crítica", "critica":
		return PriorityCritical, nil
	}
	return "", errors.NewValidationError("unknown priority").WithField("priority").WithValue(s)
}

// Task is one schedulable unit of work.
type Task struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Progress     int       `json:"progress"`
	Priority     Priority  `json:"priority"`
	AssignedTo   []string  `json:"assignedTo,omitempty"`
	PhaseID      string    `json:"phaseId,omitempty"`
	Dependencies []string  `json:"dependencies,omitempty"`
}

// Duration is the number of calendar days the task covers, inclusive of
// both endpoints.
func (t Task) Duration() int {
	return DaysBetween(t.Start, t.End) + 1
}

// IsDelayed reports whether today is past the end date with work remaining.
func (t Task) IsDelayed(today time.Time) bool {
	return Truncate(today).After(Truncate(t.End)) && t.Progress < 100
}

// WithDates returns a copy of t carrying new dates. Slices are shared; the
// copy is meant for read-only presentation and commit payloads.
func (t Task) WithDates(start, end time.Time) Task {
	t.Start = Truncate(start)
	t.End = Truncate(end)
	return t
}

// Validate checks the invariants every loaded task must satisfy.
func (t Task) Validate() error {
	if t.ID == "" {
		return errors.NewValidationError("task id is required").WithField("id")
	}
	if t.Start.IsZero() || t.End.IsZero() {
		return errors.NewValidationError("start and end dates are required").
			WithField("dates").WithValue(t.ID)
	}
	if Truncate(t.End).Before(Truncate(t.Start)) {
		return errors.NewInvalidRangeError(t.ID, Truncate(t.Start), Truncate(t.End))
	}
	if t.Progress < 0 || t.Progress > 100 {
		return errors.NewValidationError("progress must be between 0 and 100").
			WithField("progress").WithValue(t.Progress)
	}
	return nil
}

// Phase groups tasks for summary display. It owns no tasks: membership is
// whatever tasks carry its ID in PhaseID.
type Phase struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Expanded  bool   `json:"expanded"`
}

// Project is the top-level container for phases and tasks.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      string    `json:"status,omitempty"`
}

// DefaultMinRangeDays is the shortest range a timeline shows.
const DefaultMinRangeDays = 30

// Validate checks the project's own date range.
func (p Project) Validate() error {
	if p.ID == "" {
		return errors.NewValidationError("project id is required").WithField("id")
	}
	if !p.Start.IsZero() && !p.End.IsZero() && Truncate(p.End).Before(Truncate(p.Start)) {
		return errors.NewValidationError(
			fmt.Sprintf("end %s before start %s", FormatDate(p.End), FormatDate(p.Start)),
		).WithField("project.end").WithValue(p.ID)
	}
	return nil
}

// VisibleRange returns the date range a timeline of this project covers.
// Projects shorter than minDays are extended so the end is minDays after the
// start. A non-positive minDays uses DefaultMinRangeDays.
func (p Project) VisibleRange(minDays int) (time.Time, time.Time) {
	if minDays <= 0 {
		minDays = DefaultMinRangeDays
	}
	start, end := Truncate(p.Start), Truncate(p.End)
	if DaysBetween(start, end) < minDays {
		end = AddDays(start, minDays)
	}
	return start, end
}
