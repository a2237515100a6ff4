// Package timescale maps civil dates to horizontal pixel offsets and back.
//
// DayWidth is the only place a pixels-per-day figure is computed. The grid,
// the gesture controller and the render model all go through it, so a
// column of ticks and a dragged bar can never disagree about how wide a day
// is.
package timescale

import (
	"math"
	"time"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// Column widths at zoom 1.
const (
	DayColumnWidth   = 30.0
	WeekColumnWidth  = 100.0
	MonthColumnWidth = 120.0
)

// ColumnDays returns how many days one column of mode spans in the width
// table. Month columns are a nominal 30 days.
func ColumnDays(mode schedule.ViewMode) int {
	switch mode {
	case schedule.ViewWeek:
		return 7
	case schedule.ViewMonth:
		return 30
	default:
		return 1
	}
}

// ColumnWidth returns the pixel width of one nominal column at zoom.
func ColumnWidth(mode schedule.ViewMode, zoom float64) float64 {
	switch mode {
	case schedule.ViewWeek:
		return WeekColumnWidth * zoom
	case schedule.ViewMonth:
		return MonthColumnWidth * zoom
	default:
		return DayColumnWidth * zoom
	}
}

// DayWidth returns pixels per day for mode at zoom.
func DayWidth(mode schedule.ViewMode, zoom float64) float64 {
	return ColumnWidth(mode, zoom) / float64(ColumnDays(mode))
}

// Scale is an affine date-to-pixel mapping anchored at Origin (x = 0).
type Scale struct {
	Origin time.Time
	Mode   schedule.ViewMode
	Zoom   float64
}

// New builds a Scale. Unknown modes and non-positive zoom are rejected.
func New(origin time.Time, mode schedule.ViewMode, zoom float64) (Scale, error) {
	if !mode.Valid() {
		return Scale{}, errors.NewValidationError("unknown view mode").WithField("mode").WithValue(mode)
	}
	if !(zoom > 0) || math.IsInf(zoom, 0) {
		return Scale{}, errors.NewValidationError("zoom must be positive").WithField("zoom").WithValue(zoom)
	}
	return Scale{Origin: schedule.Truncate(origin), Mode: mode, Zoom: zoom}, nil
}

// ForView builds the Scale of a view config.
func ForView(v schedule.ViewConfig) (Scale, error) {
	return New(v.Start, v.Mode, v.Zoom)
}

// DayWidth returns pixels per day for this scale.
func (s Scale) DayWidth() float64 {
	return DayWidth(s.Mode, s.Zoom)
}

// ToPixel returns the x offset of the start of date. Dates before Origin
// give negative offsets.
func (s Scale) ToPixel(date time.Time) float64 {
	return float64(schedule.DaysBetween(s.Origin, date)) * s.DayWidth()
}

// ToDate returns the date whose start is nearest to x.
func (s Scale) ToDate(x float64) time.Time {
	return schedule.AddDays(s.Origin, s.DaysForDelta(x))
}

// DaysForDelta converts a pixel distance into a whole number of days,
// rounding half away from zero.
func (s Scale) DaysForDelta(px float64) int {
	return DaysForDelta(px, s.Mode, s.Zoom)
}

// DaysForDelta is the free-function form used by callers that hold a view
// rather than a Scale.
func DaysForDelta(px float64, mode schedule.ViewMode, zoom float64) int {
	return int(math.Round(px / DayWidth(mode, zoom)))
}

// SpanPixels returns the width covering [start, until).
func (s Scale) SpanPixels(start, until time.Time) float64 {
	return s.ToPixel(until) - s.ToPixel(start)
}
