// Package store persists projects, phases and tasks. The timeline core only
// consumes the Store interface; Memory, SQLite and Postgres are the three
// backends the binary can run against.
package store

import (
	"context"
	"time"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// Store is the persistence collaborator of a timeline session.
type Store interface {
	// GetProject returns a project or a NotFoundError wrapping
	// ErrProjectNotFound.
	GetProject(ctx context.Context, id string) (schedule.Project, error)
	// ListProjects returns every project ordered by name.
	ListProjects(ctx context.Context) ([]schedule.Project, error)
	// ListTasks returns a project's tasks in their stored order.
	ListTasks(ctx context.Context, projectID string) ([]schedule.Task, error)
	// ListPhases returns a project's phases in their stored order.
	ListPhases(ctx context.Context, projectID string) ([]schedule.Phase, error)
	// CommitTaskDates replaces a task's dates and returns the stored task.
	CommitTaskDates(ctx context.Context, taskID string, start, end time.Time) (schedule.Task, error)

	SaveProject(ctx context.Context, p schedule.Project) error
	SavePhase(ctx context.Context, p schedule.Phase) error
	SaveTask(ctx context.Context, t schedule.Task) error

	Close() error
}

// Snapshot is everything a board needs to load one project.
type Snapshot struct {
	Project schedule.Project
	Tasks   []schedule.Task
	Phases  []schedule.Phase
}

// Load reads a project with its phases and tasks.
func Load(ctx context.Context, s Store, projectID string) (Snapshot, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return Snapshot{}, err
	}
	phases, err := s.ListPhases(ctx, projectID)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "list phases of %s", projectID)
	}
	tasks, err := s.ListTasks(ctx, projectID)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "list tasks of %s", projectID)
	}
	return Snapshot{Project: project, Tasks: tasks, Phases: phases}, nil
}

// checkRange is the write-side guard every backend applies before storing
// new dates.
func checkRange(taskID string, start, end time.Time) error {
	if schedule.Truncate(end).Before(schedule.Truncate(start)) {
		return errors.NewInvalidRangeError(taskID, schedule.Truncate(start), schedule.Truncate(end))
	}
	return nil
}

func projectNotFound(id string) error {
	return errors.NewNotFoundError("project", id).WithCause(errors.ErrProjectNotFound)
}

func taskNotFound(id string) error {
	return errors.NewNotFoundError("task", id).WithCause(errors.ErrTaskNotFound)
}
