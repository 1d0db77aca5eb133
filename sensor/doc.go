// Package sensor defines the data model shared by every SensorBoard component.
//
// A tick of the poll loop produces exactly one [Outcome], which carries either
// a [Reading] (the node answered and its page was parsed) or a [FetchFailure]
// (transport error or non-2xx status). Outcomes are plain immutable values so
// they can cross goroutine boundaries without copying concerns.
//
// The package also holds the pure presentation rules that every surface must
// agree on:
//
//   - [ColorFor]: status category to display color, a total function
//   - [Outcome.Display]: the four current-value labels plus status color
//   - [Outcome.Row]: one history table row with a formatted timestamp
package sensor
