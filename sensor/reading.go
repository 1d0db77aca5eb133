package sensor

import "time"

// Category is the status classification reported by the sensor node.
//
// The node tags its status message with one of three CSS classes; a page
// without a recognisable status span is classified as [CategoryUnknown].
type Category string

const (
	// CategoryNormal indicates no smoke or gas was detected.
	CategoryNormal Category = "normal"

	// CategoryWarning indicates the gas reading crossed the warning threshold.
	CategoryWarning Category = "warning"

	// CategoryCritical indicates a fire or dangerous gas concentration.
	CategoryCritical Category = "critical"

	// CategoryUnknown indicates the status could not be extracted.
	CategoryUnknown Category = "unknown"
)

// Categories lists every category, in severity order.
var Categories = []Category{CategoryNormal, CategoryWarning, CategoryCritical, CategoryUnknown}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

const (
	// Placeholder is substituted for any field the extractor could not find.
	Placeholder = "Н/Д"

	// NoStatusText is the status message used when no status span matched.
	NoStatusText = "Няма данни."
)

// Fields is the result of running an extractor over a response body.
//
// Each field is extracted independently; a missing field holds [Placeholder]
// and a missing status holds [CategoryUnknown] with [NoStatusText].
type Fields struct {
	Temperature string
	Humidity    string
	GasLevel    string
	Category    Category
	StatusText  string
}

// EmptyFields returns Fields with every value set to its placeholder.
func EmptyFields() Fields {
	return Fields{
		Temperature: Placeholder,
		Humidity:    Placeholder,
		GasLevel:    Placeholder,
		Category:    CategoryUnknown,
		StatusText:  NoStatusText,
	}
}

// Reading is one successful sample from the sensor node.
type Reading struct {
	Fields
	Timestamp time.Time
}

// NewReading stamps extracted fields with the time they were observed.
func NewReading(f Fields, at time.Time) Reading {
	return Reading{Fields: f, Timestamp: at}
}

// FetchFailure is produced instead of a [Reading] when the node could not be
// reached or answered with a non-success status.
type FetchFailure struct {
	// Reason is the human-readable explanation shown on the status line.
	Reason string

	// StatusCode is the HTTP status returned by the node.
	// Zero if the request failed before receiving a response.
	StatusCode int

	Timestamp time.Time
}

// Outcome is the result of a single tick. Exactly one of Reading and Failure
// is non-nil.
type Outcome struct {
	// TickID uniquely identifies the tick in logs and published messages.
	TickID string

	// Seq is the 1-based tick number since the scheduler started.
	Seq uint64

	// Latency is the time spent on the HTTP request.
	Latency time.Duration

	Reading *Reading
	Failure *FetchFailure
}

// Succeeded builds an outcome carrying a reading.
func Succeeded(r Reading) Outcome {
	return Outcome{Reading: &r}
}

// Failed builds an outcome carrying a fetch failure.
func Failed(f FetchFailure) Outcome {
	return Outcome{Failure: &f}
}

// IsFailure reports whether the tick failed to produce a reading.
func (o Outcome) IsFailure() bool {
	return o.Failure != nil
}

// Timestamp returns the wall-clock instant of the tick.
func (o Outcome) Timestamp() time.Time {
	if o.Failure != nil {
		return o.Failure.Timestamp
	}
	if o.Reading != nil {
		return o.Reading.Timestamp
	}
	return time.Time{}
}

// Category returns the reading's category, or [CategoryUnknown] for failures.
func (o Outcome) Category() Category {
	if o.Reading == nil {
		return CategoryUnknown
	}
	return o.Reading.Category
}

// Clone returns a copy of o that shares no memory with it. Recorded
// outcomes are handed out as clones so callers cannot rewrite history.
func (o Outcome) Clone() Outcome {
	if o.Reading != nil {
		r := *o.Reading
		o.Reading = &r
	}
	if o.Failure != nil {
		f := *o.Failure
		o.Failure = &f
	}
	return o
}
