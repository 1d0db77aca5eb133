// Package server provides the read-only web mirror of the SensorBoard dashboard.
//
// This package is internal to SensorBoard and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML page at "/"
//   - REST API: "/api/current" and "/api/history" JSON snapshots
//   - Server-Sent Events: history rows streamed at "/api/sse"
//   - Metrics: Prometheus exposition at "/metrics"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the sensorboard library should not need to interact with this
// package directly. The server is started by [sensorboard.SensorBoard.Start]
// when a web port is configured.
package server
