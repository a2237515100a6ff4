package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/logging"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS projects (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_date  TEXT NOT NULL DEFAULT '',
    end_date    TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS phases (
    id         TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    name       TEXT NOT NULL,
    expanded   INTEGER NOT NULL DEFAULT 1,
    position   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tasks (
    id           TEXT PRIMARY KEY,
    project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    phase_id     TEXT NOT NULL DEFAULT '',
    title        TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    start_date   TEXT NOT NULL,
    end_date     TEXT NOT NULL,
    progress     INTEGER NOT NULL DEFAULT 0,
    priority     TEXT NOT NULL DEFAULT 'medium',
    assigned_to  TEXT NOT NULL DEFAULT '[]',
    dependencies TEXT NOT NULL DEFAULT '[]',
    position     INTEGER NOT NULL DEFAULT 0,
    updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_phases_project ON phases (project_id, position);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks (project_id, position);
`

// SQLite is a Store in a single SQLite file.
type SQLite struct {
	db     *sql.DB
	path   string
	logger *logging.Logger
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(ctx context.Context, path string, logger *logging.Logger) (*SQLite, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create database directory %s", dir)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(errors.Join(errors.ErrStoreUnavailable, err), "connect %s", path)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create tables")
	}

	logger.WithComponent("store").Debug("sqlite store opened", "path", path)
	return &SQLite{db: db, path: path, logger: logger.WithComponent("store")}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) GetProject(ctx context.Context, id string) (schedule.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, start_date, end_date, status FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Project{}, projectNotFound(id)
	}
	return p, err
}

func (s *SQLite) ListProjects(ctx context.Context) ([]schedule.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, start_date, end_date, status FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	defer rows.Close()

	var out []schedule.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) ListTasks(ctx context.Context, projectID string) ([]schedule.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteTaskColumns+` FROM tasks
		WHERE project_id = ? ORDER BY position, id`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "list tasks")
	}
	defer rows.Close()

	var out []schedule.Task
	for rows.Next() {
		t, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLite) ListPhases(ctx context.Context, projectID string) ([]schedule.Phase, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, name, expanded FROM phases
		WHERE project_id = ? ORDER BY position, id`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "list phases")
	}
	defer rows.Close()

	var out []schedule.Phase
	for rows.Next() {
		var p schedule.Phase
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Expanded); err != nil {
			return nil, errors.Wrap(err, "scan phase")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) CommitTaskDates(ctx context.Context, taskID string, start, end time.Time) (schedule.Task, error) {
	if err := checkRange(taskID, start, end); err != nil {
		return schedule.Task{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schedule.Task{}, errors.Wrap(err, "begin commit")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET start_date = ?, end_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		schedule.FormatDate(start), schedule.FormatDate(end), taskID)
	if err != nil {
		return schedule.Task{}, errors.Wrapf(err, "update task %s", taskID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.Task{}, taskNotFound(taskID)
	}

	row := tx.QueryRowContext(ctx, `SELECT `+sqliteTaskColumns+` FROM tasks WHERE id = ?`, taskID)
	task, err := scanSQLiteTask(row)
	if err != nil {
		return schedule.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return schedule.Task{}, errors.Wrapf(err, "commit task %s", taskID)
	}

	s.logger.WithTask(taskID).Debug("task dates committed",
		"start", schedule.FormatDate(task.Start),
		"end", schedule.FormatDate(task.End),
	)
	return task, nil
}

func (s *SQLite) SaveProject(ctx context.Context, p schedule.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status`,
		p.ID, p.Name, p.Description, optionalDate(p.Start), optionalDate(p.End), p.Status)
	return errors.Wrapf(err, "save project %s", p.ID)
}

func (s *SQLite) SavePhase(ctx context.Context, p schedule.Phase) error {
	if p.ID == "" {
		return errors.NewValidationError("phase id is required").WithField("id")
	}
	if _, err := s.GetProject(ctx, p.ProjectID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO phases (id, project_id, name, expanded, position)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM phases WHERE project_id = ?))
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			name = excluded.name,
			expanded = excluded.expanded`,
		p.ID, p.ProjectID, p.Name, p.Expanded, p.ProjectID)
	return errors.Wrapf(err, "save phase %s", p.ID)
}

// SaveTask stores t as given. Dates are not range checked here; a bad
// record is excluded when a board loads it.
func (s *SQLite) SaveTask(ctx context.Context, t schedule.Task) error {
	if t.ID == "" {
		return errors.NewValidationError("task id is required").WithField("id")
	}
	if _, err := s.GetProject(ctx, t.ProjectID); err != nil {
		return err
	}
	assigned, err := json.Marshal(nonNil(t.AssignedTo))
	if err != nil {
		return err
	}
	deps, err := json.Marshal(nonNil(t.Dependencies))
	if err != nil {
		return err
	}
	if t.Priority == "" {
		t.Priority = schedule.PriorityMedium
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, phase_id, title, description, start_date, end_date,
			progress, priority, assigned_to, dependencies, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM tasks WHERE project_id = ?))
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			phase_id = excluded.phase_id,
			title = excluded.title,
			description = excluded.description,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			progress = excluded.progress,
			priority = excluded.priority,
			assigned_to = excluded.assigned_to,
			dependencies = excluded.dependencies,
			updated_at = CURRENT_TIMESTAMP`,
		t.ID, t.ProjectID, t.PhaseID, t.Title, t.Description,
		schedule.FormatDate(t.Start), schedule.FormatDate(t.End),
		t.Progress, string(t.Priority), string(assigned), string(deps), t.ProjectID)
	return errors.Wrapf(err, "save task %s", t.ID)
}

const sqliteTaskColumns = `id, project_id, phase_id, title, description, start_date, end_date,
	progress, priority, assigned_to, dependencies`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (schedule.Project, error) {
	var (
		p          schedule.Project
		start, end string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &start, &end, &p.Status); err != nil {
		return schedule.Project{}, err
	}
	var err error
	if p.Start, err = parseOptionalDate(start); err != nil {
		return schedule.Project{}, errors.Wrapf(err, "project %s start", p.ID)
	}
	if p.End, err = parseOptionalDate(end); err != nil {
		return schedule.Project{}, errors.Wrapf(err, "project %s end", p.ID)
	}
	return p, nil
}

func scanSQLiteTask(row scanner) (schedule.Task, error) {
	var (
		t                schedule.Task
		start, end       string
		priority         string
		assigned, depend string
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.PhaseID, &t.Title, &t.Description,
		&start, &end, &t.Progress, &priority, &assigned, &depend); err != nil {
		return schedule.Task{}, errors.Wrap(err, "scan task")
	}

	var err error
	if t.Start, err = schedule.ParseDate(start); err != nil {
		return schedule.Task{}, errors.Wrapf(err, "task %s start", t.ID)
	}
	if t.End, err = schedule.ParseDate(end); err != nil {
		return schedule.Task{}, errors.Wrapf(err, "task %s end", t.ID)
	}
	t.Priority = schedule.Priority(priority)
	if err := json.Unmarshal([]byte(assigned), &t.AssignedTo); err != nil {
		return schedule.Task{}, errors.Wrapf(err, "task %s assigned_to", t.ID)
	}
	if err := json.Unmarshal([]byte(depend), &t.Dependencies); err != nil {
		return schedule.Task{}, errors.Wrapf(err, "task %s dependencies", t.ID)
	}
	return t, nil
}

func optionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return schedule.FormatDate(t)
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return schedule.ParseDate(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
