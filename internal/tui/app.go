package tui

import (
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
)

// App wraps the Bubble Tea program.
type App struct {
	program *tea.Program
	model   Model
}

// New creates the terminal application for one project.
func New(opts Options) *App {
	model := NewModel(opts)
	return &App{
		model: model,
		program: tea.NewProgram(
			model,
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		),
	}
}

// Notify forwards a store change to the program. It is safe to call from
// any goroutine; it blocks until the program is running.
func (a *App) Notify(path string) {
	a.program.Send(StoreChangedMsg{Path: path})
}

// Run starts the program and blocks until it exits.
func (a *App) Run() error {
	defer a.model.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		if _, ok := <-sigChan; ok {
			a.program.Send(tea.Quit())
		}
	}()
	defer func() {
		signal.Stop(sigChan)
		close(sigChan)
	}()

	final, err := a.program.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
