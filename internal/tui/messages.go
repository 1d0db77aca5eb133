package tui

import "github.com/jpalmerr/sensorboard/sensor"

// OutcomeMsg carries one tick outcome onto the UI goroutine.
type OutcomeMsg struct {
	Outcome sensor.Outcome
}

// stoppedMsg signals the poller has exited.
type stoppedMsg struct {
	err error
}
