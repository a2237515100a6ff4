package render

import (
	"github.com/Iron-Ham/gantry/internal/gesture"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// HitKind classifies what a pointer position landed on.
type HitKind string

const (
	HitTaskBody    HitKind = "task_body"
	HitStartHandle HitKind = "start_handle"
	HitEndHandle   HitKind = "end_handle"
	HitPhaseRow    HitKind = "phase_row"
)

// Hit is the result of HitTest.
type Hit struct {
	Kind    HitKind      `json:"kind"`
	TaskID  string       `json:"taskId,omitempty"`
	PhaseID string       `json:"phaseId,omitempty"`
	Edge    gesture.Edge `json:"edge,omitempty"`
	Row     int          `json:"row"`
}

// HitTest resolves a pointer position. Handles win over the bar body they
// sit on; a phase row is hit anywhere along its height.
func (m Model) HitTest(x, y float64) (Hit, bool) {
	for i := len(m.Primitives) - 1; i >= 0; i-- {
		p := m.Primitives[i]
		if p.Kind != KindHandle || !p.Geometry.Contains(x, y) {
			continue
		}
		kind := HitStartHandle
		if p.Edge == gesture.EdgeEnd {
			kind = HitEndHandle
		}
		return Hit{Kind: kind, TaskID: p.TaskID, PhaseID: p.PhaseID, Edge: p.Edge, Row: p.Row}, true
	}

	for i := len(m.Primitives) - 1; i >= 0; i-- {
		p := m.Primitives[i]
		if p.Kind == KindTaskBar && p.Geometry.Contains(x, y) {
			return Hit{Kind: HitTaskBody, TaskID: p.TaskID, PhaseID: p.PhaseID, Row: p.Row}, true
		}
	}

	for i, row := range m.Rows {
		if row.Kind == schedule.RowPhase.String() && y >= row.Y && y < row.Y+row.H {
			return Hit{Kind: HitPhaseRow, PhaseID: row.ID, Row: i}, true
		}
	}
	return Hit{}, false
}

// RowAt returns the index of the row containing y.
func (m Model) RowAt(y float64) (int, bool) {
	for i, row := range m.Rows {
		if y >= row.Y && y < row.Y+row.H {
			return i, true
		}
	}
	return 0, false
}
