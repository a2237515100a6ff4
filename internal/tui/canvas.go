package tui

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Iron-Ham/gantry/internal/render"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// headerLines is the number of terminal lines above the first row: the
// band line and the tick line.
const headerLines = 2

// Viewport maps terminal cells onto timeline pixels. Each column covers
// CellPixels pixels; each render row takes one line.
type Viewport struct {
	CellPixels float64
	LabelWidth int
	Width      int
	Height     int
	ScrollCols int
	RowOffset  int
}

// Columns is the number of timeline columns right of the labels.
func (v Viewport) Columns() int {
	return max(0, v.Width-v.LabelWidth)
}

// VisibleRows is the number of rows that fit under the header.
func (v Viewport) VisibleRows() int {
	return max(0, v.Height-headerLines)
}

// Column returns the screen column (relative to the timeline area) of
// pixel x.
func (v Viewport) Column(x float64) int {
	return int(math.Floor(x/v.CellPixels)) - v.ScrollCols
}

// PixelAt returns the pixel at the center of a timeline column.
func (v Viewport) PixelAt(col int) float64 {
	return (float64(col+v.ScrollCols) + 0.5) * v.CellPixels
}

// RowAt maps a terminal line (relative to the canvas top) to a row index.
func (v Viewport) RowAt(line int) (int, bool) {
	if line < headerLines {
		return 0, false
	}
	return line - headerLines + v.RowOffset, true
}

// CenterOn scrolls so pixel x sits in the middle of the timeline area.
func (v Viewport) CenterOn(x float64) Viewport {
	v.ScrollCols = max(0, int(math.Floor(x/v.CellPixels))-v.Columns()/2)
	return v
}

// EnsureRowVisible adjusts RowOffset so row is on screen.
func (v Viewport) EnsureRowVisible(row int) Viewport {
	visible := v.VisibleRows()
	if visible == 0 {
		return v
	}
	if row < v.RowOffset {
		v.RowOffset = row
	}
	if row >= v.RowOffset+visible {
		v.RowOffset = row - visible + 1
	}
	return v
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellGrid
	cellPhase
	cellBar
	cellProgress
	cellToday
)

// cell is one timeline character plus what determines its style.
type cell struct {
	r        rune
	kind     cellKind
	priority schedule.Priority
	active   bool
	pending  bool
	delayed  bool
}

// style key: a cell with its rune cleared.
func (c cell) key() cell {
	c.r = 0
	return c
}

// Canvas draws render models into terminal lines.
type Canvas struct {
	styles Styles
}

func NewCanvas(styles Styles) *Canvas {
	return &Canvas{styles: styles}
}

// Draw returns the header lines followed by one line per visible row. The
// selected row's label is highlighted.
func (c *Canvas) Draw(m render.Model, v Viewport, selected int) []string {
	cols := v.Columns()
	if cols == 0 || v.CellPixels <= 0 {
		return nil
	}

	bands := []rune(strings.Repeat(" ", cols))
	ticks := []rune(strings.Repeat(" ", cols))
	for _, p := range m.Primitives {
		switch p.Kind {
		case render.KindBand:
			placeText(bands, v.Column(p.Geometry.X), p.Label)
		case render.KindTick:
			placeText(ticks, v.Column(p.Geometry.X), p.Label)
		}
	}

	pad := strings.Repeat(" ", v.LabelWidth)
	lines := []string{
		pad + c.styles.Band.Render(string(bands)),
		pad + c.styles.Tick.Render(string(ticks)),
	}

	end := min(len(m.Rows), v.RowOffset+v.VisibleRows())
	for i := v.RowOffset; i < end; i++ {
		lines = append(lines, c.label(m.Rows[i], i == selected, v.LabelWidth)+c.rowCells(m, i, v))
	}
	return lines
}

func (c *Canvas) label(row render.RowInfo, selected bool, width int) string {
	prefix := strings.Repeat("  ", row.Depth)
	if row.Kind == schedule.RowPhase.String() {
		if row.Expanded {
			prefix = "▾ "
		} else {
			prefix = "▸ "
		}
	}
	text := runewidth.Truncate(prefix+row.Label, width-1, "…")
	text = runewidth.FillRight(text, width)

	style := c.styles.Label
	if row.Kind == schedule.RowPhase.String() {
		style = c.styles.Phase
	}
	if selected {
		style = style.Inherit(c.styles.Selected)
	}
	return style.Render(text)
}

func (c *Canvas) rowCells(m render.Model, row int, v Viewport) string {
	cells := make([]cell, v.Columns())
	for i := range cells {
		cells[i] = cell{r: ' '}
	}

	fill := func(x, w float64, ch rune, base cell) {
		from := v.Column(x)
		to := v.Column(x + w - 0.001)
		if to < from {
			to = from
		}
		for col := max(from, 0); col <= to && col < len(cells); col++ {
			base.r = ch
			cells[col] = base
		}
	}

	for _, p := range m.Primitives {
		switch {
		case p.Kind == render.KindGridline:
			if col := v.Column(p.Geometry.X); col >= 0 && col < len(cells) {
				cells[col] = cell{r: '┊', kind: cellGrid}
			}
		case p.Row != row:
		case p.Kind == render.KindPhaseBar:
			fill(p.Geometry.X, p.Geometry.W, '▀', cell{kind: cellPhase})
		case p.Kind == render.KindTaskBar:
			fill(p.Geometry.X, p.Geometry.W, '░', barCell(cellBar, p))
		case p.Kind == render.KindProgress:
			fill(p.Geometry.X, p.Geometry.W, '█', barCell(cellProgress, p))
		}
	}

	if m.Today != nil {
		if col := v.Column(m.Today.X); col >= 0 && col < len(cells) {
			cells[col] = cell{r: '│', kind: cellToday}
		}
	}
	return c.paint(cells)
}

func barCell(kind cellKind, p render.Primitive) cell {
	return cell{kind: kind, priority: p.Priority, active: p.Active, pending: p.Pending, delayed: p.Delayed}
}

// paint renders runs of equally styled cells with one style call each.
func (c *Canvas) paint(cells []cell) string {
	var b strings.Builder
	for i := 0; i < len(cells); {
		j := i
		var run strings.Builder
		for j < len(cells) && cells[j].key() == cells[i].key() {
			run.WriteRune(cells[j].r)
			j++
		}
		if cells[i].kind == cellEmpty {
			b.WriteString(run.String())
		} else {
			b.WriteString(c.styles.cellStyle(cells[i]).Render(run.String()))
		}
		i = j
	}
	return b.String()
}

// placeText writes s into line starting at col, clipped to the line and
// stopping before existing text so neighbouring labels don't merge.
func placeText(line []rune, col int, s string) {
	for _, r := range s {
		if col >= len(line) {
			return
		}
		if col >= 0 {
			if line[col] != ' ' {
				return
			}
			line[col] = r
		}
		col++
	}
}
