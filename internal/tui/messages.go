package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/gantry/internal/board"
	"github.com/Iron-Ham/gantry/internal/gesture"
	"github.com/Iron-Ham/gantry/internal/schedule"
	"github.com/Iron-Ham/gantry/internal/store"
)

// StoreChangedMsg tells the model that the store was written by someone
// else and the project should be reloaded.
type StoreChangedMsg struct {
	Path string
}

// snapshotMsg carries a freshly loaded project.
type snapshotMsg struct {
	snap store.Snapshot
	err  error
}

// commitResultMsg carries the store's answer to a released gesture.
type commitResultMsg struct {
	proposal gesture.Proposal
	task     schedule.Task
	err      error
}

func loadCmd(s store.Store, projectID string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := store.Load(ctx, s, projectID)
		return snapshotMsg{snap: snap, err: err}
	}
}

// commitCmd runs the commit off the update loop; the board keeps showing
// the proposal as pending until the result message arrives.
func commitCmd(c board.Committer, p gesture.Proposal, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		task, err := c.CommitTaskDates(ctx, p.TaskID, p.Start, p.End)
		return commitResultMsg{proposal: p, task: task, err: err}
	}
}
