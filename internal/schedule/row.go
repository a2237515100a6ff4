package schedule

// RowKind tags a Row's payload.
type RowKind int

const (
	RowPhase RowKind = iota
	RowTask
)

func (k RowKind) String() string {
	switch k {
	case RowPhase:
		return "phase"
	case RowTask:
		return "task"
	default:
		return "unknown"
	}
}

// Row is one line of the timeline: either a phase summary or a task. Exactly
// one of Phase and Task is set, matching Kind.
type Row struct {
	Kind  RowKind
	Phase *Phase
	Task  *Task
}

// PhaseRow builds a phase row.
func PhaseRow(p *Phase) Row { return Row{Kind: RowPhase, Phase: p} }

// TaskRow builds a task row.
func TaskRow(t *Task) Row { return Row{Kind: RowTask, Task: t} }

// ID returns the phase or task ID of the row.
func (r Row) ID() string {
	switch r.Kind {
	case RowPhase:
		if r.Phase != nil {
			return r.Phase.ID
		}
	case RowTask:
		if r.Task != nil {
			return r.Task.ID
		}
	}
	return ""
}

// Label returns the display name of the row.
func (r Row) Label() string {
	switch r.Kind {
	case RowPhase:
		if r.Phase != nil {
			return r.Phase.Name
		}
	case RowTask:
		if r.Task != nil {
			return r.Task.Title
		}
	}
	return ""
}

// Rows lays out the timeline: each phase in order followed by its tasks
// when expanded, then every task whose phase is unknown. Task order within a
// phase follows the order of tasks. The returned rows point into the given
// slices.
func Rows(phases []Phase, tasks []Task) []Row {
	known := make(map[string]bool, len(phases))
	for i := range phases {
		known[phases[i].ID] = true
	}

	rows := make([]Row, 0, len(phases)+len(tasks))
	for i := range phases {
		p := &phases[i]
		rows = append(rows, PhaseRow(p))
		if !p.Expanded {
			continue
		}
		for j := range tasks {
			if tasks[j].PhaseID == p.ID {
				rows = append(rows, TaskRow(&tasks[j]))
			}
		}
	}
	for j := range tasks {
		if !known[tasks[j].PhaseID] {
			rows = append(rows, TaskRow(&tasks[j]))
		}
	}
	return rows
}
