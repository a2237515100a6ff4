package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/store"
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"ls"},
	Short:   "List the projects in the store",
	Args:    cobra.NoArgs,
	RunE:    runProjects,
}

var projectsMatch string

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.Flags().StringVar(&projectsMatch, "match", "", "only list projects whose id or name matches this glob")
}

func runProjects(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	projects, err := e.store.ListProjects(cmd.Context())
	if err != nil {
		return err
	}
	projects, err = store.FilterProjects(projects, projectsMatch)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		if projectsMatch != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No projects match %q.\n", projectsMatch)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No projects. Load one with 'gantry import <fixture.yaml>'.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tSTART\tEND")
	for _, p := range projects {
		status := p.Status
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, status, optionalDate(p.Start), optionalDate(p.End))
	}
	return tw.Flush()
}

func optionalDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return schedule.FormatDate(t)
}
