package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jpalmerr/sensorboard/sensor"
)

// Bridge is a presenter that forwards outcomes to the Bubble Tea program via
// program.Send(). This is goroutine-safe.
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a new bridge that forwards outcomes to the given program.
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

// Present forwards one outcome to the TUI.
func (b *Bridge) Present(o sensor.Outcome) {
	b.program.Send(OutcomeMsg{Outcome: o})
}

// stopped signals that polling has finished.
func (b *Bridge) stopped(err error) {
	b.program.Send(stoppedMsg{err: err})
}
