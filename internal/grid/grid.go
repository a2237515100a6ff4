// Package grid derives the tick columns, month bands and today marker of a
// timeline from a timescale.Scale.
package grid

import (
	"fmt"
	"time"

	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/timescale"
)

// Tick is one grid column.
type Tick struct {
	Date  time.Time `json:"date"`
	Index int       `json:"index"`
	X     float64   `json:"x"`
	Width float64   `json:"width"`
	Label string    `json:"label"`
}

// Band is a run of consecutive ticks in the same calendar month.
type Band struct {
	Start     time.Time `json:"start"`
	X         float64   `json:"x"`
	Width     float64   `json:"width"`
	Label     string    `json:"label"`
	FirstTick int       `json:"firstTick"`
	Ticks     int       `json:"ticks"`
}

// Grid is the column layout of one view.
type Grid struct {
	Ticks []Tick    `json:"ticks"`
	Bands []Band    `json:"bands"`
	Until time.Time `json:"until"`
}

// Build lays out ticks from start while the tick date is on or before end.
// Day views step one day, week views seven days, month views one calendar
// month (clamped to the month's last day). Tick widths are the distance to
// the next tick date through the scale, so they always agree with bar
// geometry.
func Build(scale timescale.Scale, start, end time.Time) Grid {
	start, end = schedule.Truncate(start), schedule.Truncate(end)
	if end.Before(start) {
		return Grid{}
	}

	var dates []time.Time
	for i, d := 0, start; !d.After(end); i++ {
		dates = append(dates, d)
		d = step(scale.Mode, start, i+1)
	}

	ticks := make([]Tick, len(dates))
	for i, d := range dates {
		next := step(scale.Mode, start, i+1)
		x := scale.ToPixel(d)
		ticks[i] = Tick{
			Date:  d,
			Index: i,
			X:     x,
			Width: scale.ToPixel(next) - x,
			Label: TickLabel(scale.Mode, d),
		}
	}

	return Grid{
		Ticks: ticks,
		Bands: bands(ticks),
		Until: step(scale.Mode, start, len(ticks)),
	}
}

// step returns the n-th tick date after start. Month steps are computed from
// start rather than the previous tick so Jan 31 gives Feb 29 then Mar 31.
func step(mode schedule.ViewMode, start time.Time, n int) time.Time {
	switch mode {
	case schedule.ViewWeek:
		return schedule.AddDays(start, 7*n)
	case schedule.ViewMonth:
		return schedule.AddMonthsClamped(start, n)
	default:
		return schedule.AddDays(start, n)
	}
}

func bands(ticks []Tick) []Band {
	var out []Band
	for i, tick := range ticks {
		if i == 0 || !sameMonth(tick.Date, ticks[i-1].Date) {
			out = append(out, Band{
				Start:     tick.Date,
				X:         tick.X,
				Label:     BandLabel(tick.Date),
				FirstTick: i,
			})
		}
		b := &out[len(out)-1]
		b.Width += tick.Width
		b.Ticks++
	}
	return out
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// TickLabel formats a tick date for mode.
func TickLabel(mode schedule.ViewMode, d time.Time) string {
	switch mode {
	case schedule.ViewWeek:
		_, week := d.ISOWeek()
		return fmt.Sprintf("W%d", week)
	case schedule.ViewMonth:
		return d.Format("January 2006")
	default:
		return d.Format("2 Jan")
	}
}

// BandLabel formats the month band header.
func BandLabel(d time.Time) string {
	return d.Format("Jan 2006")
}

// Width is the total pixel width of the grid.
func (g Grid) Width() float64 {
	if len(g.Ticks) == 0 {
		return 0
	}
	last := g.Ticks[len(g.Ticks)-1]
	return last.X + last.Width - g.Ticks[0].X
}

// End is the exclusive end date: the date the column after the last tick
// would start on.
func (g Grid) End() time.Time {
	return g.Until
}
