// Package history provides the append-only tick history of SensorBoard.
//
// This package is internal to SensorBoard. It keeps every tick outcome in
// arrival order and fans appended entries out to subscribers (the web mirror's
// Server-Sent Events stream) with non-blocking sends: slow subscribers miss
// entries rather than block the tick loop.
//
// The main components are:
//
//   - [Store]: Interface defining append, snapshot and subscription operations
//   - [MemoryLog]: In-memory implementation of Store with pub/sub
//
// Users of the sensorboard library should not need to interact with this
// package directly.
package history
