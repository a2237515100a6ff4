package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// Memory is an in-process Store. It backs tests and the "memory" driver.
type Memory struct {
	mu        sync.RWMutex
	projects  map[string]schedule.Project
	phases    []schedule.Phase
	tasks     []schedule.Task
	commitErr error
	commits   int
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{projects: make(map[string]schedule.Project)}
}

// FailCommits makes every following CommitTaskDates call return err. A nil
// err restores normal behavior.
func (m *Memory) FailCommits(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitErr = err
}

// Commits returns how many commits were attempted.
func (m *Memory) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

func (m *Memory) GetProject(ctx context.Context, id string) (schedule.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return schedule.Project{}, projectNotFound(id)
	}
	return p, nil
}

func (m *Memory) ListProjects(ctx context.Context) ([]schedule.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schedule.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b schedule.Project) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *Memory) ListTasks(ctx context.Context, projectID string) ([]schedule.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (m *Memory) ListPhases(ctx context.Context, projectID string) ([]schedule.Phase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.Phase
	for _, p := range m.phases {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) CommitTaskDates(ctx context.Context, taskID string, start, end time.Time) (schedule.Task, error) {
	if err := ctx.Err(); err != nil {
		return schedule.Task{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++

	if m.commitErr != nil {
		return schedule.Task{}, m.commitErr
	}
	if err := checkRange(taskID, start, end); err != nil {
		return schedule.Task{}, err
	}
	for i, t := range m.tasks {
		if t.ID == taskID {
			m.tasks[i] = t.WithDates(start, end)
			return cloneTask(m.tasks[i]), nil
		}
	}
	return schedule.Task{}, taskNotFound(taskID)
}

func (m *Memory) SaveProject(ctx context.Context, p schedule.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) SavePhase(ctx context.Context, p schedule.Phase) error {
	if p.ID == "" {
		return errors.NewValidationError("phase id is required").WithField("id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ProjectID]; !ok {
		return projectNotFound(p.ProjectID)
	}
	for i := range m.phases {
		if m.phases[i].ID == p.ID {
			m.phases[i] = p
			return nil
		}
	}
	m.phases = append(m.phases, p)
	return nil
}

// SaveTask stores t as given. Dates are not range checked here; a bad
// record is excluded when a board loads it.
func (m *Memory) SaveTask(ctx context.Context, t schedule.Task) error {
	if t.ID == "" {
		return errors.NewValidationError("task id is required").WithField("id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[t.ProjectID]; !ok {
		return projectNotFound(t.ProjectID)
	}
	t = cloneTask(t.WithDates(t.Start, t.End))
	for i := range m.tasks {
		if m.tasks[i].ID == t.ID {
			m.tasks[i] = t
			return nil
		}
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *Memory) Close() error { return nil }

func cloneTask(t schedule.Task) schedule.Task {
	t.AssignedTo = slices.Clone(t.AssignedTo)
	t.Dependencies = slices.Clone(t.Dependencies)
	return t
}
