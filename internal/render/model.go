// Package render turns a schedule snapshot, a view and the in-flight gesture
// into a flat list of positioned drawing primitives.
//
// Build is pure: it reads its Input and nothing else, so callers can rebuild
// the model on every pointer move. Presentation layers (the terminal UI, the
// HTTP API, the SVG exporter) draw the primitives in order; later primitives
// sit on top of earlier ones.
package render

import (
	"time"

	"github.com/Iron-Ham/gantry/internal/gesture"
	"github.com/Iron-Ham/gantry/internal/grid"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// Kind identifies what a primitive depicts.
type Kind string

const (
	KindBand     Kind = "band"
	KindTick     Kind = "tick"
	KindGridline Kind = "gridline"
	KindPhaseBar Kind = "phase_bar"
	KindTaskBar  Kind = "task_bar"
	KindProgress Kind = "progress"
	KindHandle   Kind = "handle"
	KindToday    Kind = "today"
)

// Geometry is an axis-aligned rectangle in timeline pixels. Lines have a
// zero width.
type Geometry struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether (x, y) lies inside g, edges included.
func (g Geometry) Contains(x, y float64) bool {
	return x >= g.X && x <= g.X+g.W && y >= g.Y && y <= g.Y+g.H
}

// Primitive is one drawable element.
type Primitive struct {
	Kind     Kind              `json:"kind"`
	Geometry Geometry          `json:"geometry"`
	Label    string            `json:"label,omitempty"`
	Row      int               `json:"row"`
	TaskID   string            `json:"taskId,omitempty"`
	PhaseID  string            `json:"phaseId,omitempty"`
	Priority schedule.Priority `json:"priority,omitempty"`
	Progress int               `json:"progress,omitempty"`
	Active   bool              `json:"active,omitempty"`
	Pending  bool              `json:"pending,omitempty"`
	Delayed  bool              `json:"delayed,omitempty"`
	Edge     gesture.Edge      `json:"edge,omitempty"`
	Start    time.Time         `json:"start,omitzero"`
	End      time.Time         `json:"end,omitzero"`
}

// RowInfo describes one laid out row.
type RowInfo struct {
	Kind     string  `json:"kind"`
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Y        float64 `json:"y"`
	H        float64 `json:"h"`
	Depth    int     `json:"depth"`
	Expanded bool    `json:"expanded,omitempty"`
}

// Dates is a tentative date pair shown in place of a task's canonical dates.
type Dates struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Layout holds the vertical metrics and bar decorations.
type Layout struct {
	RowHeight    float64 `json:"rowHeight"`
	HeaderHeight float64 `json:"headerHeight"`
	BandHeight   float64 `json:"bandHeight"`
	BarInset     float64 `json:"barInset"`
	HandleWidth  float64 `json:"handleWidth"`
	// HandleMinBarWidth is the bar width handles need; narrower bars can
	// only be dragged.
	HandleMinBarWidth float64 `json:"handleMinBarWidth"`
	MinBarWidth       float64 `json:"minBarWidth"`
}

// DefaultLayout returns the standard metrics.
func DefaultLayout() Layout {
	return Layout{
		RowHeight:         30,
		HeaderHeight:      50,
		BandHeight:        25,
		BarInset:          5,
		HandleWidth:       8,
		HandleMinBarWidth: 20,
		MinBarWidth:       2,
	}
}

// Input is everything Build reads.
type Input struct {
	Tasks   []schedule.Task
	Phases  []schedule.Phase
	View    schedule.ViewConfig
	Gesture *gesture.Snapshot
	Pending map[string]Dates
	Today   time.Time
	// Layout overrides DefaultLayout when its RowHeight is set.
	Layout Layout
}

// Model is the render output.
type Model struct {
	View       schedule.ViewConfig `json:"view"`
	Layout     Layout              `json:"layout"`
	Width      float64             `json:"width"`
	Height     float64             `json:"height"`
	Rows       []RowInfo           `json:"rows"`
	Primitives []Primitive         `json:"primitives"`
	Today      *grid.Marker        `json:"today,omitempty"`
}

// Filter returns the primitives of kind, in draw order.
func (m Model) Filter(kind Kind) []Primitive {
	var out []Primitive
	for _, p := range m.Primitives {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// TaskBar returns the bar primitive of taskID.
func (m Model) TaskBar(taskID string) (Primitive, bool) {
	for _, p := range m.Primitives {
		if p.Kind == KindTaskBar && p.TaskID == taskID {
			return p, true
		}
	}
	return Primitive{}, false
}

// PhaseBar returns the summary bar primitive of phaseID.
func (m Model) PhaseBar(phaseID string) (Primitive, bool) {
	for _, p := range m.Primitives {
		if p.Kind == KindPhaseBar && p.PhaseID == phaseID {
			return p, true
		}
	}
	return Primitive{}, false
}
