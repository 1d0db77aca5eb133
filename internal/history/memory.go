package history

import (
	"sync"

	"github.com/jpalmerr/sensorboard/sensor"
)

const subscriberBuffer = 100

// MemoryLog is an in-memory implementation of [Store].
//
// Growth is unbounded: the log lives as long as the process. Appends are
// serialised by a mutex, so concurrent appends never interleave or drop.
type MemoryLog struct {
	mu          sync.RWMutex
	entries     []sensor.Outcome
	subscribers map[chan sensor.Outcome]struct{}
	subMu       sync.RWMutex
}

// NewMemoryLog creates an empty [MemoryLog].
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		subscribers: make(map[chan sensor.Outcome]struct{}),
	}
}

// Append adds a copy of o to the end of the log and notifies all
// subscribers. Later changes to o do not reach the stored entry.
func (m *MemoryLog) Append(o sensor.Outcome) int {
	o = o.Clone()

	m.mu.Lock()
	m.entries = append(m.entries, o)
	n := len(m.entries)
	m.mu.Unlock()

	m.notifySubscribers(o)
	return n
}

// Entries returns a snapshot of all outcomes, oldest first.
func (m *MemoryLog) Entries() []sensor.Outcome {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]sensor.Outcome, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Clone()
	}
	return out
}

// Last returns the most recent outcome.
func (m *MemoryLog) Last() (sensor.Outcome, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return sensor.Outcome{}, false
	}
	return m.entries[len(m.entries)-1].Clone(), true
}

// Len returns the number of entries.
func (m *MemoryLog) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Subscribe creates a new subscription. The buffer holds as many entries as
// the log currently has plus 100, so a subscriber that first replays
// [MemoryLog.Entries] does not fall behind while doing so.
//
// If the buffer fills, new entries are dropped for this subscriber without
// notice. Consumers that must detect gaps should compare Seq values.
func (m *MemoryLog) Subscribe() <-chan sensor.Outcome {
	ch := make(chan sensor.Outcome, m.Len()+subscriberBuffer)
	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryLog) Unsubscribe(ch <-chan sensor.Outcome) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends o to every subscriber without blocking.
func (m *MemoryLog) notifySubscribers(o sensor.Outcome) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- o.Clone():
		default:
			// subscriber is slow, drop the entry
		}
	}
}
