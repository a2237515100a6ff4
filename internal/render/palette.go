package render

import "github.com/Iron-Ham/gantry/internal/schedule"

// Colors shared by every renderer.
const (
	ColorPhase    = "#4b5563"
	ColorProgress = "#1e3a8a"
	ColorDelayed  = "#dc2626"
	ColorToday    = "#ef4444"
	ColorGrid     = "#e5e7eb"
	ColorHeader   = "#f3f4f6"
	ColorText     = "#111827"
	ColorActive   = "#7c3aed"
)

// PriorityColor returns the bar fill for a priority.
func PriorityColor(p schedule.Priority) string {
	switch p {
	case schedule.PriorityLow:
		return "#10b981"
	case schedule.PriorityHigh:
		return "#f59e0b"
	case schedule.PriorityCritical:
		return "#ef4444"
	default:
		return "#3b82f6"
	}
}
