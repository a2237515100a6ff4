package store

import (
	"github.com/gobwas/glob"

	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/schedule"
)

// FilterProjects keeps the projects whose ID or name matches pattern, a
// shell-style glob such as "web-*" or "{alpha,beta}*". An empty pattern
// keeps every project.
func FilterProjects(projects []schedule.Project, pattern string) ([]schedule.Project, error) {
	if pattern == "" {
		return projects, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewValidationError("invalid project pattern").
			WithField("match").WithValue(pattern).WithCause(err)
	}

	kept := make([]schedule.Project, 0, len(projects))
	for _, p := range projects {
		if g.Match(p.ID) || g.Match(p.Name) {
			kept = append(kept, p)
		}
	}
	return kept, nil
}
