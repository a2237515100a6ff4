package render

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/gantry/internal/gesture"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

func apr(d int) time.Time { return schedule.Date(2024, 4, d) }

func fixture() Input {
	return Input{
		Phases: []schedule.Phase{
			{ID: "p1", Name: "Planning", Expanded: true},
			{ID: "p2", Name: "Build", Expanded: false},
		},
		Tasks: []schedule.Task{
			{ID: "a", Title: "Research", PhaseID: "p1", Start: apr(1), End: apr(5), Progress: 100, Priority: schedule.PriorityHigh},
			{ID: "b", Title: "Design", PhaseID: "p1", Start: apr(8), End: apr(12), Progress: 50},
			{ID: "c", Title: "Implement", PhaseID: "p2", Start: apr(15), End: apr(29)},
			{ID: "d", Title: "Review", Start: apr(22), End: apr(22)},
		},
		View: schedule.ViewConfig{Mode: schedule.ViewDay, Zoom: 1, Start: apr(1), End: apr(30)},
	}
}

func mustBuild(t *testing.T, in Input) Model {
	t.Helper()
	m, err := Build(in)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m
}

func TestBuild_Rows(t *testing.T) {
	m := mustBuild(t, fixture())

	want := []string{"phase:p1", "task:a", "task:b", "phase:p2", "task:d"}
	if len(m.Rows) != len(want) {
		t.Fatalf("len(Rows) = %d, want %d", len(m.Rows), len(want))
	}
	for i, w := range want {
		if got := m.Rows[i].Kind + ":" + m.Rows[i].ID; got != w {
			t.Errorf("Rows[%d] = %s, want %s", i, got, w)
		}
		if wantY := 50 + float64(i)*30; m.Rows[i].Y != wantY {
			t.Errorf("Rows[%d].Y = %v, want %v", i, m.Rows[i].Y, wantY)
		}
	}
	if m.Rows[1].Depth != 1 || m.Rows[4].Depth != 0 {
		t.Errorf("depths = %d, %d, want 1, 0", m.Rows[1].Depth, m.Rows[4].Depth)
	}
	if m.Height != 50+5*30 {
		t.Errorf("Height = %v, want 200", m.Height)
	}
}

func TestBuild_TaskBarGeometry(t *testing.T) {
	m := mustBuild(t, fixture())

	bar, ok := m.TaskBar("a")
	if !ok {
		t.Fatal("no bar for task a")
	}
	// [Apr 1, Apr 5] covers five 30px days.
	want := Geometry{X: 0, Y: 85, W: 150, H: 20}
	if bar.Geometry != want {
		t.Errorf("Geometry = %+v, want %+v", bar.Geometry, want)
	}
	if bar.Priority != schedule.PriorityHigh || bar.Label != "Research" {
		t.Errorf("bar = %+v", bar)
	}

	if _, ok := m.TaskBar("c"); ok {
		t.Error("task in collapsed phase should not get a bar")
	}
}

func TestBuild_PhaseBarsFromChildren(t *testing.T) {
	m := mustBuild(t, fixture())

	p1, ok := m.PhaseBar("p1")
	if !ok {
		t.Fatal("no bar for phase p1")
	}
	// Apr 1 through Apr 12 inclusive.
	if p1.Geometry.X != 0 || p1.Geometry.W != 12*30 {
		t.Errorf("p1 geometry = %+v, want x 0 w 360", p1.Geometry)
	}
	if p1.Progress != 75 {
		t.Errorf("p1 progress = %d, want 75", p1.Progress)
	}

	p2, ok := m.PhaseBar("p2")
	if !ok {
		t.Fatal("collapsed phase should still show its summary bar")
	}
	if p2.Geometry.X != 14*30 || p2.Geometry.W != 15*30 {
		t.Errorf("p2 geometry = %+v", p2.Geometry)
	}
}

func TestBuild_Handles(t *testing.T) {
	in := fixture()
	in.View.Mode = schedule.ViewMonth // 4px per day

	m := mustBuild(t, in)
	handles := map[string]int{}
	for _, p := range m.Filter(KindHandle) {
		handles[p.TaskID]++
	}
	// a: 20px (not wider than 20), b: 20px, d: 4px.
	if len(handles) != 0 {
		t.Errorf("handles = %v, want none at month zoom 1", handles)
	}

	in.View.Mode = schedule.ViewDay
	m = mustBuild(t, in)
	for _, p := range m.Filter(KindHandle) {
		handles[p.TaskID]++
	}
	if handles["a"] != 2 || handles["b"] != 2 || handles["d"] != 2 {
		t.Errorf("handles = %v, want two on every day-view bar", handles)
	}
}

func TestBuild_MinBarWidth(t *testing.T) {
	in := fixture()
	in.View.Mode = schedule.ViewMonth
	in.View.Zoom = 0.25 // 1px per day

	m := mustBuild(t, in)
	bar, _ := m.TaskBar("d")
	if bar.Geometry.W != DefaultLayout().MinBarWidth {
		t.Errorf("W = %v, want minimum bar width", bar.Geometry.W)
	}
}

func TestBuild_GestureSubstitution(t *testing.T) {
	in := fixture()
	in.Gesture = &gesture.Snapshot{TaskID: "b", State: gesture.Dragging, Start: apr(18), End: apr(22)}

	m := mustBuild(t, in)
	bar, _ := m.TaskBar("b")
	if bar.Geometry.X != 17*30 || !bar.Active {
		t.Errorf("tentative bar = %+v", bar)
	}

	p1, _ := m.PhaseBar("p1")
	if p1.Geometry.W != 22*30 {
		t.Errorf("phase bar W = %v, want re-aggregated 660", p1.Geometry.W)
	}

	if !in.Tasks[1].Start.Equal(apr(8)) {
		t.Error("Build mutated its input")
	}
}

func TestBuild_PendingSubstitution(t *testing.T) {
	in := fixture()
	in.Pending = map[string]Dates{"a": {Start: apr(3), End: apr(7)}}

	m := mustBuild(t, in)
	bar, _ := m.TaskBar("a")
	if bar.Geometry.X != 60 || !bar.Pending || bar.Active {
		t.Errorf("pending bar = %+v", bar)
	}

	// A live gesture on the same task wins.
	in.Gesture = &gesture.Snapshot{TaskID: "a", Start: apr(10), End: apr(11)}
	m = mustBuild(t, in)
	bar, _ = m.TaskBar("a")
	if bar.Geometry.X != 270 || !bar.Active {
		t.Errorf("gesture bar = %+v", bar)
	}
}

func TestBuild_TodayAndDelayed(t *testing.T) {
	in := fixture()
	in.Today = apr(10)

	m := mustBuild(t, in)
	if m.Today == nil || m.Today.X != 270 {
		t.Fatalf("Today = %+v, want x 270", m.Today)
	}
	last := m.Primitives[len(m.Primitives)-1]
	if last.Kind != KindToday {
		t.Errorf("today marker should be drawn last, got %s", last.Kind)
	}

	a, _ := m.TaskBar("a")
	b, _ := m.TaskBar("b")
	if a.Delayed {
		t.Error("completed task flagged as delayed")
	}
	if b.Delayed {
		t.Error("running task flagged as delayed")
	}

	in.Today = apr(20)
	m = mustBuild(t, in)
	b, _ = m.TaskBar("b")
	if !b.Delayed {
		t.Error("unfinished task past its end should be delayed")
	}

	in.Today = apr(30) // last tick
	m = mustBuild(t, in)
	if m.Today != nil || len(m.Filter(KindToday)) != 0 {
		t.Error("today on the last tick should not draw a marker")
	}
}

func TestBuild_Header(t *testing.T) {
	m := mustBuild(t, fixture())
	if got := len(m.Filter(KindTick)); got != 30 {
		t.Errorf("ticks = %d, want 30", got)
	}
	if got := len(m.Filter(KindGridline)); got != 30 {
		t.Errorf("gridlines = %d, want 30", got)
	}
	bands := m.Filter(KindBand)
	if len(bands) != 1 || bands[0].Label != "Apr 2024" {
		t.Errorf("bands = %+v", bands)
	}
	if m.Width != 900 {
		t.Errorf("Width = %v, want 900", m.Width)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	in := fixture()
	in.Today = apr(10)
	first := mustBuild(t, in)
	second := mustBuild(t, in)
	if len(first.Primitives) != len(second.Primitives) {
		t.Fatal("primitive counts differ")
	}
	for i := range first.Primitives {
		if first.Primitives[i] != second.Primitives[i] {
			t.Fatalf("primitive %d differs", i)
		}
	}
}

func TestBuild_InvalidView(t *testing.T) {
	in := fixture()
	in.View.Zoom = 0
	if _, err := Build(in); err == nil {
		t.Error("Build() should fail for zoom 0")
	}
}

func TestHitTest(t *testing.T) {
	m := mustBuild(t, fixture())
	// Task a row: y 80..110, bar y 85..105, x 0..150.

	tests := []struct {
		name   string
		x, y   float64
		wantOK bool
		want   Hit
	}{
		{"start handle", 3, 95, true, Hit{Kind: HitStartHandle, TaskID: "a", PhaseID: "p1", Edge: gesture.EdgeStart, Row: 1}},
		{"end handle", 147, 95, true, Hit{Kind: HitEndHandle, TaskID: "a", PhaseID: "p1", Edge: gesture.EdgeEnd, Row: 1}},
		{"body", 75, 95, true, Hit{Kind: HitTaskBody, TaskID: "a", PhaseID: "p1", Row: 1}},
		{"phase row", 800, 60, true, Hit{Kind: HitPhaseRow, PhaseID: "p1", Row: 0}},
		{"empty task row", 600, 95, false, Hit{}},
		{"header", 10, 10, false, Hit{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.HitTest(tt.x, tt.y)
			if ok != tt.wantOK {
				t.Fatalf("HitTest() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("HitTest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRowAt(t *testing.T) {
	m := mustBuild(t, fixture())
	if i, ok := m.RowAt(111); !ok || i != 2 {
		t.Errorf("RowAt(111) = %d, %v, want 2", i, ok)
	}
	if _, ok := m.RowAt(20); ok {
		t.Error("RowAt() in the header should miss")
	}
}

func TestWriteSVG(t *testing.T) {
	in := fixture()
	in.Tasks[0].Title = "R&D <phase 1>"
	in.Today = apr(10)
	m := mustBuild(t, in)

	var buf bytes.Buffer
	if err := WriteSVG(&buf, m); err != nil {
		t.Fatalf("WriteSVG() error = %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<svg") {
		t.Errorf("output does not start with <svg: %q", out[:20])
	}
	if !strings.Contains(out, "R&amp;D &lt;phase 1&gt;") {
		t.Error("labels should be XML escaped")
	}
	if !strings.Contains(out, PriorityColor(schedule.PriorityHigh)) {
		t.Error("priority color missing")
	}

	dec := xml.NewDecoder(&buf)
	for {
		_, err := dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("output is not well-formed XML: %v", err)
			}
			break
		}
	}
}

func TestNum(t *testing.T) {
	tests := map[float64]string{
		0:         "0",
		30:        "30",
		30.5:      "30.5",
		100.0 / 7: "14.29",
		-0.001:    "0",
	}
	for in, want := range tests {
		if got := num(in); got != want {
			t.Errorf("num(%v) = %q, want %q", in, got, want)
		}
	}
}
