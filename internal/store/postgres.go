package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/logging"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

var _ Store = (*Postgres)(nil)

// OpenPostgres connects to dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string, logger *logging.Logger) (*Postgres, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(errors.Join(errors.ErrStoreUnavailable, err), "connect postgres")
	}

	s := NewPostgres(pool, logger)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgres wraps an existing pool. The caller owns the schema.
func NewPostgres(pool *pgxpool.Pool, logger *logging.Logger) *Postgres {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Postgres{pool: pool, logger: logger.WithComponent("store")}
}

// EnsureSchema creates the projects, phases and tasks tables if they don't
// exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS gantry_projects (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_date  DATE,
			end_date    DATE,
			status      TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS gantry_phases (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES gantry_projects(id) ON DELETE CASCADE,
			name       TEXT NOT NULL,
			expanded   BOOLEAN NOT NULL DEFAULT TRUE,
			position   INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS gantry_tasks (
			id           TEXT PRIMARY KEY,
			project_id   TEXT NOT NULL REFERENCES gantry_projects(id) ON DELETE CASCADE,
			phase_id     TEXT NOT NULL DEFAULT '',
			title        TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			start_date   DATE NOT NULL,
			end_date     DATE NOT NULL,
			progress     INTEGER NOT NULL DEFAULT 0,
			priority     TEXT NOT NULL DEFAULT 'medium',
			assigned_to  TEXT[] NOT NULL DEFAULT '{}',
			dependencies TEXT[] NOT NULL DEFAULT '{}',
			position     INTEGER NOT NULL DEFAULT 0,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_gantry_phases_project ON gantry_phases (project_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_gantry_tasks_project ON gantry_tasks (project_id, position);`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "ensure schema")
		}
	}
	return nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func (s *Postgres) GetProject(ctx context.Context, id string) (schedule.Project, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, name, description, start_date, end_date, status
		FROM gantry_projects WHERE id = $1`, id)
	p, err := scanPostgresProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return schedule.Project{}, projectNotFound(id)
	}
	return p, err
}

func (s *Postgres) ListProjects(ctx context.Context) ([]schedule.Project, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description, start_date, end_date, status
		FROM gantry_projects ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	defer rows.Close()

	var out []schedule.Project
	for rows.Next() {
		p, err := scanPostgresProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) ListTasks(ctx context.Context, projectID string) ([]schedule.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+postgresTaskColumns+` FROM gantry_tasks
		WHERE project_id = $1 ORDER BY position, id`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "list tasks")
	}
	defer rows.Close()

	var out []schedule.Task
	for rows.Next() {
		t, err := scanPostgresTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Postgres) ListPhases(ctx context.Context, projectID string) ([]schedule.Phase, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, project_id, name, expanded FROM gantry_phases
		WHERE project_id = $1 ORDER BY position, id`, projectID)
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

func (s *Postgres) CommitTaskDates(ctx context.Context, taskID string, start, end time.Time) (schedule.Task, error) {
	if err := checkRange(taskID, start, end); err != nil {
		return schedule.Task{}, err
	}
	row := s.pool.QueryRow(ctx, `UPDATE gantry_tasks
		SET start_date = $2, end_date = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+postgresTaskColumns,
		taskID, schedule.Truncate(start), schedule.Truncate(end))
	task, err := scanPostgresTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return schedule.Task{}, taskNotFound(taskID)
	}
	if err != nil {
		return schedule.Task{}, errors.Wrapf(err, "update task %s", taskID)
	}

	s.logger.WithTask(taskID).Debug("task dates committed",
		"start", schedule.FormatDate(task.Start),
		"end", schedule.FormatDate(task.End),
	)
	return task, nil
}

func (s *Postgres) SaveProject(ctx context.Context, p schedule.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO gantry_projects (id, name, description, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			status = EXCLUDED.status`,
		p.ID, p.Name, p.Description, nullableDate(p.Start), nullableDate(p.End), p.Status)
	return errors.Wrapf(err, "save project %s", p.ID)
}

func (s *Postgres) SavePhase(ctx context.Context, p schedule.Phase) error {
	if p.ID == "" {
		return errors.NewValidationError("phase id is required").WithField("id")
	}
	if _, err := s.GetProject(ctx, p.ProjectID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO gantry_phases (id, project_id, name, expanded, position)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM gantry_phases WHERE project_id = $2))
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			name = EXCLUDED.name,
			expanded = EXCLUDED.expanded`,
		p.ID, p.ProjectID, p.Name, p.Expanded)
	return errors.Wrapf(err, "save phase %s", p.ID)
}

// SaveTask stores t as given. Dates are not range checked here; a bad
// record is excluded when a board loads it.
func (s *Postgres) SaveTask(ctx context.Context, t schedule.Task) error {
	if t.ID == "" {
		return errors.NewValidationError("task id is required").WithField("id")
	}
	if _, err := s.GetProject(ctx, t.ProjectID); err != nil {
		return err
	}
	if t.Priority == "" {
		t.Priority = schedule.PriorityMedium
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO gantry_tasks (id, project_id, phase_id, title, description, start_date, end_date,
			progress, priority, assigned_to, dependencies, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM gantry_tasks WHERE project_id = $2))
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			phase_id = EXCLUDED.phase_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			progress = EXCLUDED.progress,
			priority = EXCLUDED.priority,
			assigned_to = EXCLUDED.assigned_to,
			dependencies = EXCLUDED.dependencies,
			updated_at = NOW()`,
		t.ID, t.ProjectID, t.PhaseID, t.Title, t.Description,
		schedule.Truncate(t.Start), schedule.Truncate(t.End),
		t.Progress, string(t.Priority), nonNil(t.AssignedTo), nonNil(t.Dependencies))
	return errors.Wrapf(err, "save task %s", t.ID)
}

const postgresTaskColumns = `id, project_id, phase_id, title, description, start_date, end_date,
	progress, priority, assigned_to, dependencies`

func scanPostgresProject(row pgx.Row) (schedule.Project, error) {
	var (
		p          schedule.Project
		start, end *time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &start, &end, &p.Status); err != nil {
		return schedule.Project{}, err
	}
	if start != nil {
		p.Start = schedule.Truncate(*start)
	}
	if end != nil {
		p.End = schedule.Truncate(*end)
	}
	return p, nil
}

func scanPostgresTask(row pgx.Row) (schedule.Task, error) {
	var (
		t        schedule.Task
		priority string
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.PhaseID, &t.Title, &t.Description,
		&t.Start, &t.End, &t.Progress, &priority, &t.AssignedTo, &t.Dependencies); err != nil {
		return schedule.Task{}, err
	}
	t.Start = schedule.Truncate(t.Start)
	t.End = schedule.Truncate(t.End)
	t.Priority = schedule.Priority(priority)
	return t, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	d := schedule.Truncate(t)
	return &d
}
