package sensorboard

import "github.com/jpalmerr/sensorboard/sensor"

// Presenter renders outcomes.
//
// Present is called once per tick, in tick order, after the outcome has been
// appended to the history.
type Presenter interface {
	Present(o sensor.Outcome)
}

// PresenterFunc adapts an ordinary function to a [Presenter].
type PresenterFunc func(o sensor.Outcome)

// Present calls f(o).
func (f PresenterFunc) Present(o sensor.Outcome) {
	f(o)
}
