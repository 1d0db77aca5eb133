// Package poller implements the tick loop of SensorBoard.
//
// This package is internal to SensorBoard and handles the periodic polling of
// the sensor node. A single goroutine fetches and parses one page per tick, so
// fetches never overlap.
//
// The main components are:
//
//   - [Client]: HTTP client with separate connect and read timeouts
//   - [Scheduler]: fixed-rate tick loop emitting one [sensor.Outcome] per tick
//   - [Target]: the node URL and the extractor applied to its page
//
// Users of the sensorboard library should not need to interact with this
// package directly. Configuration is done through the main sensorboard package.
package poller
