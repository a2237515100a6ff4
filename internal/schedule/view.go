package schedule

import (
	"math"
	"strings"
	"time"

	"github.com/Iron-Ham/gantry/internal/errors"
)

// ViewMode is the time resolution of the timeline.
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
)

// ViewModes lists the modes in coarsening order.
func ViewModes() []ViewMode {
	return []ViewMode{ViewDay, ViewWeek, ViewMonth}
}

// ParseViewMode parses a mode name case-insensitively.
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ViewDay, ViewWeek, ViewMonth:
		return m, nil
	}
	return "", errors.NewValidationError("unknown view mode").WithField("mode").WithValue(s)
}

// Valid reports whether m is a known mode.
func (m ViewMode) Valid() bool {
	switch m {
	case ViewDay, ViewWeek, ViewMonth:
		return true
	}
	return false
}

// Zoom bounds and the preset levels UIs step through.
const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

// ZoomLevels are the preset zoom steps (50%, 100%, 150%, 200%).
var ZoomLevels = []float64{0.5, 1, 1.5, 2}

// ClampZoom limits z to [MinZoom, MaxZoom]. NaN maps to 1.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// NextZoom returns the smallest preset strictly above z, or z itself when
// no preset is larger.
func NextZoom(z float64) float64 {
	for _, level := range ZoomLevels {
		if level > z+1e-9 {
			return level
		}
	}
	return z
}

// PrevZoom returns the largest preset strictly below z, or z itself when no
// preset is smaller.
func PrevZoom(z float64) float64 {
	for i := len(ZoomLevels) - 1; i >= 0; i-- {
		if ZoomLevels[i] < z-1e-9 {
			return ZoomLevels[i]
		}
	}
	return z
}

// ViewConfig is the live presentation configuration of one timeline.
type ViewConfig struct {
	Mode  ViewMode  `json:"mode"`
	Zoom  float64   `json:"zoom"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate checks mode, zoom and range.
func (v ViewConfig) Validate() error {
	if !v.Mode.Valid() {
		return errors.NewValidationError("unknown view mode").WithField("mode").WithValue(v.Mode)
	}
	if v.Zoom < MinZoom || v.Zoom > MaxZoom || math.IsNaN(v.Zoom) {
		return errors.NewValidationError("zoom out of range").WithField("zoom").WithValue(v.Zoom)
	}
	if Truncate(v.End).Before(Truncate(v.Start)) {
		return errors.NewValidationError("view end before start").WithField("end").WithValue(FormatDate(v.End))
	}
	return nil
}
