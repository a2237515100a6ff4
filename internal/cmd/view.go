package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/gantry/internal/store"
	"github.com/Iron-Ham/gantry/internal/tui"
	"github.com/Iron-Ham/gantry/internal/watch"
)

var viewCmd = &cobra.Command{
	Use:   "view <project-id>",
	Short: "Open a project's timeline in the terminal",
	Long: `Open a project's timeline in the terminal.

Drag a bar with the mouse to move a task, or drag either end to resize it.
The keyboard moves the selected task one day at a time (h/l) or its end
(H/L). When the store is a SQLite file, changes written by other processes
are picked up automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

var viewNoWatch bool

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().BoolVar(&viewNoWatch, "no-watch", false, "do not reload when the database file changes")
}

func runView(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	projectID := args[0]
	if _, err := e.store.GetProject(cmd.Context(), projectID); err != nil {
		return err
	}

	// Get terminal dimensions so the first frame is laid out correctly
	width, height := 0, 0
	if termWidth, termHeight, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = termWidth, termHeight
	}

	app := tui.New(tui.Options{
		Store:         e.store,
		ProjectID:     projectID,
		Mode:          e.mode,
		Zoom:          e.cfg.View.Zoom,
		MinRangeDays:  e.cfg.View.MinRangeDays,
		CellPixels:    e.cfg.TUI.CellPixels,
		LabelWidth:    e.cfg.TUI.LabelWidth,
		RowHeight:     e.cfg.TUI.RowHeight,
		CommitTimeout: e.cfg.Store.CommitTimeout(),
		Width:         width,
		Height:        height,
		Logger:        e.logger,
	})

	if e.cfg.Watch.Enabled && !viewNoWatch {
		if p, ok := e.store.(store.Pather); ok {
			w, err := watch.New(e.cfg.Watch.Debounce(), e.logger)
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			if err := w.AddDatabase(p.Path()); err != nil {
				w.Stop()
				return fmt.Errorf("failed to watch %s: %w", p.Path(), err)
			}
			w.SetCallback(app.Notify)
			w.Start()
			defer w.Stop()
		}
	}

	return app.Run()
}
