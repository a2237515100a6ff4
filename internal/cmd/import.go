package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/gantry/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <fixture.yaml>",
	Short: "Load a project from a YAML fixture into the store",
	Long: `Load a project from a YAML fixture into the store.

Records without an id get a generated one. Importing the same fixture again
updates the existing records. Use "-" to read the fixture from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open fixture: %w", err)
		}
		defer f.Close()
		r = f
	}

	fixture, err := store.ParseFixture(r)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	snap, err := store.Import(cmd.Context(), e.store, fixture)
	if err != nil {
		return fmt.Errorf("failed to import fixture: %w", err)
	}
	e.logger.Info("fixture imported",
		"project_id", snap.Project.ID,
		"phases", len(snap.Phases),
		"tasks", len(snap.Tasks))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported project %s (%s)\n", snap.Project.Name, snap.Project.ID)
	fmt.Fprintf(out, "  %d phases, %d tasks\n", len(snap.Phases), len(snap.Tasks))
	return nil
}
