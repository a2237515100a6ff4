// Package phasebar derives a phase's summary bar from its child tasks.
package phasebar

import (
	"time"

	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/timescale"
)

// Bar is the span of a phase: from its earliest child start up to, but not
// including, the day after its latest child end.
type Bar struct {
	PhaseID        string    `json:"phaseId"`
	Start          time.Time `json:"start"`
	Until          time.Time `json:"until"`
	EarliestTaskID string    `json:"earliestTaskId"`
	LatestTaskID   string    `json:"latestTaskId"`
	Children       int       `json:"children"`
	Progress       int       `json:"progress"`
}

// Children returns the tasks belonging to phaseID, in list order.
func Children(phaseID string, tasks []schedule.Task) []schedule.Task {
	var out []schedule.Task
	for _, t := range tasks {
		if t.PhaseID == phaseID {
			out = append(out, t)
		}
	}
	return out
}

// Aggregate computes the bar of phase over tasks. A phase with no children
// has no bar. Ties on start or end keep the first task in list order, so the
// result depends only on the task list.
func Aggregate(phase schedule.Phase, tasks []schedule.Task) (Bar, bool) {
	var (
		earliest, latest *schedule.Task
		count            int
		progressDays     int
		totalDays        int
	)
	for i := range tasks {
		t := &tasks[i]
		if t.PhaseID != phase.ID {
			continue
		}
		count++
		if earliest == nil || t.Start.Before(earliest.Start) {
			earliest = t
		}
		if latest == nil || t.End.After(latest.End) {
			latest = t
		}
		d := t.Duration()
		totalDays += d
		progressDays += d * t.Progress
	}
	if count == 0 {
		return Bar{}, false
	}

	bar := Bar{
		PhaseID:        phase.ID,
		Start:          schedule.Truncate(earliest.Start),
		Until:          schedule.AddDays(latest.End, 1),
		EarliestTaskID: earliest.ID,
		LatestTaskID:   latest.ID,
		Children:       count,
	}
	if totalDays > 0 {
		bar.Progress = progressDays / totalDays
	}
	return bar, true
}

// AggregateAll returns the bars of every phase that has children, keyed by
// phase ID.
func AggregateAll(phases []schedule.Phase, tasks []schedule.Task) map[string]Bar {
	bars := make(map[string]Bar, len(phases))
	for _, p := range phases {
		if bar, ok := Aggregate(p, tasks); ok {
			bars[p.ID] = bar
		}
	}
	return bars
}

// Pixels returns the bar's x offset and width on scale.
func (b Bar) Pixels(scale timescale.Scale) (x, width float64) {
	x = scale.ToPixel(b.Start)
	return x, scale.ToPixel(b.Until) - x
}

// End is the last day the bar covers.
func (b Bar) End() time.Time {
	return schedule.AddDays(b.Until, -1)
}
