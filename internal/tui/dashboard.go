// Package tui provides the full-screen Bubble Tea dashboard: the current
// sensor values with a colored status line above a scrollable, append-only
// history table.
package tui

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jpalmerr/sensorboard"
)

// IsTerminal reports whether stdout is a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Run polls with a [sensorboard.SensorBoard] built from opts and shows the
// dashboard until the user quits or ctx is cancelled.
//
// The poller runs in a background goroutine while the TUI runs in the
// calling goroutine. Returns an error if the options are invalid, the
// terminal cannot be driven, or polling fails to start.
func Run(ctx context.Context, opts ...sensorboard.Option) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bridge := &Bridge{}
	sb, err := sensorboard.New(append(opts, sensorboard.WithPresenter(bridge))...)
	if err != nil {
		return err
	}

	model := NewModel(sb.RefreshInterval(), cancel)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	bridge.program = program

	done := make(chan error, 1)
	go func() {
		err := sb.Start(ctx)
		done <- err
		bridge.stopped(err)
	}()

	// blocks until the user quits
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-done
		return err
	}

	cancel()
	return <-done
}
