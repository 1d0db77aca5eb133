package history

import "github.com/jpalmerr/sensorboard/sensor"

// Store defines the operations on the tick history.
//
// Implementations must be safe for concurrent use. Entries are never mutated
// or reordered once appended.
type Store interface {
	// Append adds an outcome to the end of the history, notifies subscribers,
	// and returns the new length.
	Append(o sensor.Outcome) int

	// Entries returns a snapshot of all outcomes in chronological order.
	// The returned outcomes share no memory with the stored ones.
	Entries() []sensor.Outcome

	// Last returns the most recent outcome, if any.
	Last() (sensor.Outcome, bool)

	// Len returns the number of entries.
	Len() int

	// Subscribe returns a channel that receives every subsequently appended
	// outcome. Entries that do not fit the channel buffer are dropped for
	// that subscriber. Caller must call Unsubscribe when done.
	Subscribe() <-chan sensor.Outcome

	// Unsubscribe removes a subscription and closes its channel.
	Unsubscribe(ch <-chan sensor.Outcome)
}
