package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/gantry/internal/render"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

func TestViewport(t *testing.T) {
	v := Viewport{CellPixels: 10, LabelWidth: 20, Width: 100, Height: 12, ScrollCols: 3}

	if got := v.Columns(); got != 80 {
		t.Errorf("Columns() = %d, want 80", got)
	}
	if got := v.VisibleRows(); got != 10 {
		t.Errorf("VisibleRows() = %d, want 10", got)
	}
	if got := v.Column(55); got != 2 {
		t.Errorf("Column(55) = %d, want 2", got)
	}
	if got := v.PixelAt(2); got != 55 {
		t.Errorf("PixelAt(2) = %v, want 55", got)
	}
	if _, ok := v.RowAt(1); ok {
		t.Error("RowAt() inside the header should be false")
	}
	if row, ok := v.RowAt(headerLines + 4); !ok || row != 4 {
		t.Errorf("RowAt() = %d, %v, want 4, true", row, ok)
	}

	centered := v.CenterOn(1000)
	if centered.ScrollCols != 60 {
		t.Errorf("CenterOn(1000).ScrollCols = %d, want 60", centered.ScrollCols)
	}
	if v.CenterOn(5).ScrollCols != 0 {
		t.Error("CenterOn near the origin should not scroll negative")
	}
}

func TestViewport_EnsureRowVisible(t *testing.T) {
	v := Viewport{Height: headerLines + 5}

	tests := []struct {
		offset, row, want int
	}{
		{0, 3, 0},
		{0, 7, 3},
		{4, 2, 2},
	}
	for _, tt := range tests {
		v.RowOffset = tt.offset
		if got := v.EnsureRowVisible(tt.row).RowOffset; got != tt.want {
			t.Errorf("offset %d row %d: RowOffset = %d, want %d", tt.offset, tt.row, got, tt.want)
		}
	}
}

func TestCanvas_Draw(t *testing.T) {
	view := schedule.ViewConfig{
		Mode: schedule.ViewWeek, Zoom: 1,
		Start: schedule.Date(2024, 4, 1), End: schedule.Date(2024, 5, 1),
	}
	m, err := render.Build(render.Input{
		View: view,
		Phases: []schedule.Phase{
			{ID: "ph1", Name: "Design", Expanded: true},
		},
		Tasks: []schedule.Task{
			{ID: "t1", PhaseID: "ph1", Title: "A very long task title that will not fit",
				Start: schedule.Date(2024, 4, 8), End: schedule.Date(2024, 4, 12), Progress: 50},
		},
		Today: schedule.Date(2024, 4, 10),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	v := Viewport{CellPixels: 10, LabelWidth: 16, Width: 80, Height: 10}
	lines := NewCanvas(DefaultStyles()).Draw(m, v, 1)

	if len(lines) != headerLines+2 {
		t.Fatalf("got %d lines, want %d", len(lines), headerLines+2)
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != v.Width {
			t.Errorf("line %d width = %d, want %d", i, w, v.Width)
		}
	}
	if !strings.Contains(lines[0], "Apr 2024") {
		t.Errorf("band line = %q, want month label", lines[0])
	}
	if !strings.Contains(lines[2], "▾ Design") {
		t.Errorf("phase row = %q, want expanded marker", lines[2])
	}
	if !strings.Contains(lines[3], "…") {
		t.Errorf("task row = %q, want truncated label", lines[3])
	}
	if !strings.Contains(lines[3], "█") || !strings.Contains(lines[3], "░") {
		t.Errorf("task row = %q, want progress and remaining fill", lines[3])
	}
	if !strings.Contains(lines[3], "│") {
		t.Errorf("task row = %q, want the today marker", lines[3])
	}
}

func TestPlaceText(t *testing.T) {
	line := []rune(strings.Repeat(" ", 10))
	placeText(line, 2, "W14")
	placeText(line, 4, "W15") // collides with W14
	placeText(line, 8, "W16") // clipped
	placeText(line, -1, "ab") // starts off screen

	if got := string(line); got != "b W14   W1" {
		t.Errorf("line = %q", got)
	}
}
