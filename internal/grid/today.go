package grid

import (
	"sort"
	"time"

	"github.com/Iron-Ham/gantry/internal/schedule"
)

// Marker is the position of the today line.
type Marker struct {
	Date      time.Time `json:"date"`
	X         float64   `json:"x"`
	TickIndex int       `json:"tickIndex"`
}

// Today locates today between the two ticks that bracket it and
// interpolates inside the earlier tick's column. There is no marker before
// the first tick, on or after the last tick, or with fewer than two ticks.
func Today(ticks []Tick, today time.Time) (Marker, bool) {
	if len(ticks) < 2 {
		return Marker{}, false
	}
	today = schedule.Truncate(today)

	// First tick strictly after today; the bracketing tick is the one before.
	next := sort.Search(len(ticks), func(i int) bool {
		return ticks[i].Date.After(today)
	})
	if next == 0 || next == len(ticks) {
		return Marker{}, false
	}

	i := next - 1
	span := schedule.DaysBetween(ticks[i].Date, ticks[next].Date)
	if span <= 0 {
		return Marker{}, false
	}
	frac := float64(schedule.DaysBetween(ticks[i].Date, today)) / float64(span)

	return Marker{
		Date:      today,
		X:         ticks[i].X + frac*ticks[i].Width,
		TickIndex: i,
	}, true
}
