package render

import (
	"math"

	"github.com/Iron-Ham/gantry/internal/gesture"
	"github.com/Iron-Ham/gantry/internal/grid"
	"github.com/Iron-Ham/gantry/internal/phasebar"
	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/timescale"
)

// Build lays out in. It fails only when the view cannot form a scale.
func Build(in Input) (Model, error) {
	scale, err := timescale.ForView(in.View)
	if err != nil {
		return Model{}, err
	}
	layout := in.Layout
	if layout.RowHeight <= 0 {
		layout = DefaultLayout()
	}

	tasks, flags := effectiveTasks(in)
	g := grid.Build(scale, in.View.Start, in.View.End)
	rows := schedule.Rows(in.Phases, tasks)
	bars := phasebar.AggregateAll(in.Phases, tasks)

	m := Model{
		View:   in.View,
		Layout: layout,
		Width:  g.Width(),
		Height: layout.HeaderHeight + float64(len(rows))*layout.RowHeight,
	}
	b := builder{model: &m, layout: layout, scale: scale}

	b.header(g)
	for i, row := range rows {
		y := layout.HeaderHeight + float64(i)*layout.RowHeight
		switch row.Kind {
		case schedule.RowPhase:
			m.Rows = append(m.Rows, RowInfo{
				Kind: row.Kind.String(), ID: row.Phase.ID, Label: row.Phase.Name,
				Y: y, H: layout.RowHeight, Expanded: row.Phase.Expanded,
			})
			if bar, ok := bars[row.Phase.ID]; ok {
				b.phaseBar(i, y, *row.Phase, bar)
			}
		case schedule.RowTask:
			depth := 0
			if _, ok := bars[row.Task.PhaseID]; ok {
				depth = 1
			}
			m.Rows = append(m.Rows, RowInfo{
				Kind: row.Kind.String(), ID: row.Task.ID, Label: row.Task.Title,
				Y: y, H: layout.RowHeight, Depth: depth,
			})
			b.taskBar(i, y, *row.Task, flags[row.Task.ID], in)
		}
	}

	if !in.Today.IsZero() {
		if marker, ok := grid.Today(g.Ticks, in.Today); ok {
			m.Today = &marker
			m.Primitives = append(m.Primitives, Primitive{
				Kind:     KindToday,
				Geometry: Geometry{X: marker.X, Y: 0, W: 0, H: m.Height},
				Label:    "Today",
				Row:      -1,
				Start:    marker.Date,
			})
		}
	}
	return m, nil
}

type taskFlags struct {
	active  bool
	pending bool
}

// effectiveTasks copies the task list with tentative dates substituted. The
// live gesture wins over a pending commit for the same task.
func effectiveTasks(in Input) ([]schedule.Task, map[string]taskFlags) {
	tasks := make([]schedule.Task, len(in.Tasks))
	flags := make(map[string]taskFlags)
	for i, t := range in.Tasks {
		if d, ok := in.Pending[t.ID]; ok {
			t = t.WithDates(d.Start, d.End)
			flags[t.ID] = taskFlags{pending: true}
		}
		if in.Gesture != nil && in.Gesture.TaskID == t.ID {
			t = t.WithDates(in.Gesture.Start, in.Gesture.End)
			f := flags[t.ID]
			f.active = true
			flags[t.ID] = f
		}
		tasks[i] = t
	}
	return tasks, flags
}

type builder struct {
	model  *Model
	layout Layout
	scale  timescale.Scale
}

func (b *builder) add(p Primitive) {
	b.model.Primitives = append(b.model.Primitives, p)
}

func (b *builder) header(g grid.Grid) {
	l := b.layout
	for _, band := range g.Bands {
		b.add(Primitive{
			Kind:     KindBand,
			Geometry: Geometry{X: band.X, Y: 0, W: band.Width, H: l.BandHeight},
			Label:    band.Label,
			Row:      -1,
			Start:    band.Start,
		})
	}
	for _, tick := range g.Ticks {
		b.add(Primitive{
			Kind:     KindTick,
			Geometry: Geometry{X: tick.X, Y: l.BandHeight, W: tick.Width, H: l.HeaderHeight - l.BandHeight},
			Label:    tick.Label,
			Row:      -1,
			Start:    tick.Date,
		})
	}
	body := b.model.Height - l.HeaderHeight
	for _, tick := range g.Ticks {
		b.add(Primitive{
			Kind:     KindGridline,
			Geometry: Geometry{X: tick.X, Y: l.HeaderHeight, W: 0, H: body},
			Row:      -1,
			Start:    tick.Date,
		})
	}
}

func (b *builder) span(y float64, x, w float64) Geometry {
	l := b.layout
	return Geometry{
		X: x,
		Y: y + l.BarInset,
		W: math.Max(w, l.MinBarWidth),
		H: l.RowHeight - 2*l.BarInset,
	}
}

func (b *builder) phaseBar(row int, y float64, phase schedule.Phase, bar phasebar.Bar) {
	x, w := bar.Pixels(b.scale)
	geom := b.span(y, x, w)
	b.add(Primitive{
		Kind:     KindPhaseBar,
		Geometry: geom,
		Label:    phase.Name,
		Row:      row,
		PhaseID:  phase.ID,
		Progress: bar.Progress,
		Start:    bar.Start,
		End:      bar.End(),
	})
	if bar.Progress > 0 {
		b.add(Primitive{
			Kind:     KindProgress,
			Geometry: Geometry{X: geom.X, Y: geom.Y, W: geom.W * float64(bar.Progress) / 100, H: geom.H},
			Row:      row,
			PhaseID:  phase.ID,
			Progress: bar.Progress,
		})
	}
}

func (b *builder) taskBar(row int, y float64, task schedule.Task, f taskFlags, in Input) {
	x := b.scale.ToPixel(task.Start)
	w := b.scale.ToPixel(schedule.AddDays(task.End, 1)) - x
	geom := b.span(y, x, w)

	base := Primitive{
		Row:      row,
		TaskID:   task.ID,
		PhaseID:  task.PhaseID,
		Priority: task.Priority,
		Progress: task.Progress,
		Active:   f.active,
		Pending:  f.pending,
		Delayed:  !in.Today.IsZero() && task.IsDelayed(in.Today),
	}

	bar := base
	bar.Kind = KindTaskBar
	bar.Geometry = geom
	bar.Label = task.Title
	bar.Start, bar.End = task.Start, task.End
	b.add(bar)

	if task.Progress > 0 {
		p := base
		p.Kind = KindProgress
		p.Geometry = Geometry{X: geom.X, Y: geom.Y, W: geom.W * float64(task.Progress) / 100, H: geom.H}
		b.add(p)
	}

	if geom.W > b.layout.HandleMinBarWidth {
		hw := b.layout.HandleWidth
		start := base
		start.Kind = KindHandle
		start.Edge = gesture.EdgeStart
		start.Geometry = Geometry{X: geom.X, Y: geom.Y, W: hw, H: geom.H}
		b.add(start)

		end := base
		end.Kind = KindHandle
		end.Edge = gesture.EdgeEnd
		end.Geometry = Geometry{X: geom.X + geom.W - hw, Y: geom.Y, W: hw, H: geom.H}
		b.add(end)
	}
}
