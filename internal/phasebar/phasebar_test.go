package phasebar

import (
	"math"
	"testing"

	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/timescale"
)

func task(id, phase string, start, end int, progress int) schedule.Task {
	return schedule.Task{
		ID:       id,
		PhaseID:  phase,
		Start:    schedule.Date(2019, 4, start),
		End:      schedule.Date(2019, 4, end),
		Progress: progress,
	}
}

func TestAggregate(t *testing.T) {
	phase := schedule.Phase{ID: "p1", Name: "Planning", Expanded: true}

	tests := []struct {
		name         string
		tasks        []schedule.Task
		wantOK       bool
		wantStart    int
		wantUntil    int
		wantEarliest string
		wantLatest   string
	}{
		{
			name:   "no children",
			tasks:  []schedule.Task{task("x", "other", 1, 5, 0)},
			wantOK: false,
		},
		{
			name: "spans children",
			tasks: []schedule.Task{
				task("a", "p1", 1, 5, 100),
				task("b", "p1", 8, 12, 50),
				task("c", "p1", 22, 29, 0),
				task("x", "", 1, 30, 0),
			},
			wantOK:       true,
			wantStart:    1,
			wantUntil:    30,
			wantEarliest: "a",
			wantLatest:   "c",
		},
		{
			name: "ties keep list order",
			tasks: []schedule.Task{
				task("a", "p1", 3, 10, 0),
				task("b", "p1", 3, 10, 0),
			},
			wantOK:       true,
			wantStart:    3,
			wantUntil:    11,
			wantEarliest: "a",
			wantLatest:   "a",
		},
		{
			name:         "single day child",
			tasks:        []schedule.Task{task("a", "p1", 29, 29, 0)},
			wantOK:       true,
			wantStart:    29,
			wantUntil:    30,
			wantEarliest: "a",
			wantLatest:   "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar, ok := Aggregate(phase, tt.tasks)
			if ok != tt.wantOK {
				t.Fatalf("Aggregate() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !bar.Start.Equal(schedule.Date(2019, 4, tt.wantStart)) {
				t.Errorf("Start = %s, want Apr %d", schedule.FormatDate(bar.Start), tt.wantStart)
			}
			if !bar.Until.Equal(schedule.Date(2019, 4, tt.wantUntil)) {
				t.Errorf("Until = %s, want Apr %d", schedule.FormatDate(bar.Until), tt.wantUntil)
			}
			if bar.EarliestTaskID != tt.wantEarliest || bar.LatestTaskID != tt.wantLatest {
				t.Errorf("earliest/latest = %s/%s, want %s/%s",
					bar.EarliestTaskID, bar.LatestTaskID, tt.wantEarliest, tt.wantLatest)
			}
		})
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	phase := schedule.Phase{ID: "p1"}
	tasks := []schedule.Task{
		task("a", "p1", 1, 5, 0),
		task("b", "p1", 1, 29, 0),
		task("c", "p1", 15, 29, 0),
	}

	first, _ := Aggregate(phase, tasks)
	for i := 0; i < 10; i++ {
		again, _ := Aggregate(phase, tasks)
		if again != first {
			t.Fatalf("Aggregate() = %+v, want %+v", again, first)
		}
	}
	if first.EarliestTaskID != "a" || first.LatestTaskID != "b" {
		t.Errorf("earliest/latest = %s/%s, want a/b", first.EarliestTaskID, first.LatestTaskID)
	}
}

func TestAggregate_WeightedProgress(t *testing.T) {
	phase := schedule.Phase{ID: "p1"}
	tasks := []schedule.Task{
		task("a", "p1", 1, 1, 100), // 1 day
		task("b", "p1", 2, 4, 0),   // 3 days
	}
	bar, _ := Aggregate(phase, tasks)
	if bar.Progress != 25 {
		t.Errorf("Progress = %d, want 25", bar.Progress)
	}
	if bar.Children != 2 {
		t.Errorf("Children = %d, want 2", bar.Children)
	}
}

func TestBar_Pixels(t *testing.T) {
	scale, err := timescale.New(schedule.Date(2019, 4, 1), schedule.ViewDay, 1)
	if err != nil {
		t.Fatal(err)
	}
	bar, _ := Aggregate(schedule.Phase{ID: "p1"}, []schedule.Task{task("a", "p1", 1, 29, 0)})

	x, w := bar.Pixels(scale)
	if x != 0 || math.Abs(w-29*30) > 1e-9 {
		t.Errorf("Pixels() = %v, %v, want 0, 870", x, w)
	}
	if !bar.End().Equal(schedule.Date(2019, 4, 29)) {
		t.Errorf("End() = %s, want 2019-04-29", schedule.FormatDate(bar.End()))
	}
}

func TestChildrenAndAggregateAll(t *testing.T) {
	phases := []schedule.Phase{{ID: "p1"}, {ID: "p2"}, {ID: "empty"}}
	tasks := []schedule.Task{
		task("a", "p1", 1, 5, 0),
		task("b", "p2", 8, 12, 0),
		task("c", "p1", 9, 10, 0),
	}

	if got := Children("p1", tasks); len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Children(p1) = %v", got)
	}

	bars := AggregateAll(phases, tasks)
	if len(bars) != 2 {
		t.Fatalf("len(AggregateAll()) = %d, want 2", len(bars))
	}
	if _, ok := bars["empty"]; ok {
		t.Error("phase without children should have no bar")
	}
}
