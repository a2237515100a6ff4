package store

import (
	"context"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// Fixture is the YAML document used to seed and export a project. Tasks
// nested under a phase belong to it; top-level tasks have no phase.
type Fixture struct {
	Project FixtureProject `yaml:"project"`
	Phases  []FixturePhase `yaml:"phases,omitempty"`
	Tasks   []FixtureTask  `yaml:"tasks,omitempty"`
}

type FixtureProject struct {
	ID          string `yaml:"id,omitempty"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Start       string `yaml:"start,omitempty"`
	End         string `yaml:"end,omitempty"`
	Status      string `yaml:"status,omitempty"`
}

type FixturePhase struct {
	ID       string        `yaml:"id,omitempty"`
	Name     string        `yaml:"name"`
	Expanded *bool         `yaml:"expanded,omitempty"`
	Tasks    []FixtureTask `yaml:"tasks,omitempty"`
}

type FixtureTask struct {
	ID           string   `yaml:"id,omitempty"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description,omitempty"`
	Start        string   `yaml:"start"`
	End          string   `yaml:"end"`
	Progress     int      `yaml:"progress,omitempty"`
	Priority     string   `yaml:"priority,omitempty"`
	AssignedTo   []string `yaml:"assignedTo,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}

// ParseFixture decodes a fixture document. Unknown keys are rejected.
func ParseFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}
	return &f, nil
}

// Records converts the fixture into store records, generating IDs where
// the document omits them. Task dates must parse, but their order is not
// checked; a reversed range survives import and is excluded at load time.
func (f *Fixture) Records() (Snapshot, error) {
	project := schedule.Project{
		ID:          f.Project.ID,
		Name:        f.Project.Name,
		Description: f.Project.Description,
		Status:      f.Project.Status,
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	var err error
	if f.Project.Start != "" {
		if project.Start, err = schedule.ParseDate(f.Project.Start); err != nil {
			return Snapshot{}, fixtureDateError("project.start", f.Project.Start, err)
		}
	}
	if f.Project.End != "" {
		if project.End, err = schedule.ParseDate(f.Project.End); err != nil {
			return Snapshot{}, fixtureDateError("project.end", f.Project.End, err)
		}
	}
	if err := project.Validate(); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Project: project}
	for _, fp := range f.Phases {
		phase := schedule.Phase{
			ID:        fp.ID,
			ProjectID: project.ID,
			Name:      fp.Name,
			Expanded:  fp.Expanded == nil || *fp.Expanded,
		}
		if phase.ID == "" {
			phase.ID = uuid.NewString()
		}
		snap.Phases = append(snap.Phases, phase)

		for _, ft := range fp.Tasks {
			task, err := ft.record(project.ID, phase.ID)
			if err != nil {
				return Snapshot{}, err
			}
			snap.Tasks = append(snap.Tasks, task)
		}
	}
	for _, ft := range f.Tasks {
		task, err := ft.record(project.ID, "")
		if err != nil {
			return Snapshot{}, err
		}
		snap.Tasks = append(snap.Tasks, task)
	}
	return snap, nil
}

func (ft FixtureTask) record(projectID, phaseID string) (schedule.Task, error) {
	t := schedule.Task{
		ID:           ft.ID,
		ProjectID:    projectID,
		PhaseID:      phaseID,
		Title:        ft.Title,
		Description:  ft.Description,
		Progress:     ft.Progress,
		AssignedTo:   ft.AssignedTo,
		Dependencies: ft.Dependencies,
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	var err error
	if t.Start, err = schedule.ParseDate(ft.Start); err != nil {
		return schedule.Task{}, fixtureDateError("task "+t.ID+" start", ft.Start, err)
	}
	if t.End, err = schedule.ParseDate(ft.End); err != nil {
		return schedule.Task{}, fixtureDateError("task "+t.ID+" end", ft.End, err)
	}
	if t.Priority, err = schedule.ParsePriority(ft.Priority); err != nil {
		return schedule.Task{}, errors.Wrapf(err, "task %s", t.ID)
	}
	return t, nil
}

func fixtureDateError(field, value string, cause error) error {
	return errors.NewValidationError("expected YYYY-MM-DD").
		WithField(field).WithValue(value).WithCause(cause)
}

// Import writes every record of f into s and returns what was written.
func Import(ctx context.Context, s Store, f *Fixture) (Snapshot, error) {
	snap, err := f.Records()
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.SaveProject(ctx, snap.Project); err != nil {
		return Snapshot{}, err
	}
	for _, p := range snap.Phases {
		if err := s.SavePhase(ctx, p); err != nil {
			return Snapshot{}, err
		}
	}
	for _, t := range snap.Tasks {
		if err := s.SaveTask(ctx, t); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// FixtureFrom converts a snapshot back into its YAML shape. Tasks whose
// phase is unknown are written at the top level.
func FixtureFrom(snap Snapshot) *Fixture {
	f := &Fixture{Project: FixtureProject{
		ID:          snap.Project.ID,
		Name:        snap.Project.Name,
		Description: snap.Project.Description,
		Status:      snap.Project.Status,
	}}
	if !snap.Project.Start.IsZero() {
		f.Project.Start = schedule.FormatDate(snap.Project.Start)
	}
	if !snap.Project.End.IsZero() {
		f.Project.End = schedule.FormatDate(snap.Project.End)
	}

	index := make(map[string]int, len(snap.Phases))
	for _, p := range snap.Phases {
		expanded := p.Expanded
		index[p.ID] = len(f.Phases)
		f.Phases = append(f.Phases, FixturePhase{ID: p.ID, Name: p.Name, Expanded: &expanded})
	}
	for _, t := range snap.Tasks {
		ft := FixtureTask{
			ID:           t.ID,
			Title:        t.Title,
			Description:  t.Description,
			Start:        schedule.FormatDate(t.Start),
			End:          schedule.FormatDate(t.End),
			Progress:     t.Progress,
			Priority:     string(t.Priority),
			AssignedTo:   t.AssignedTo,
			Dependencies: t.Dependencies,
		}
		if i, ok := index[t.PhaseID]; ok {
			f.Phases[i].Tasks = append(f.Phases[i].Tasks, ft)
			continue
		}
		f.Tasks = append(f.Tasks, ft)
	}
	return f
}

// WriteFixture encodes snap as a fixture document.
func WriteFixture(w io.Writer, snap Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FixtureFrom(snap)); err != nil {
		return errors.Wrap(err, "encode fixture")
	}
	return enc.Close()
}
