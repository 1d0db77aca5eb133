// Package sensorboard polls an ESP32 fire-alarm sensor node and presents its
// readings as a live, read-only dashboard with an append-only history.
//
// SensorBoard is designed SDK-first: the CLI in cmd/sensorboard is a thin
// wrapper around this package. Configuration uses the functional options
// pattern.
//
// # Quick Start
//
//	sb, _ := sensorboard.New(
//	    sensorboard.WithAddress("172.20.10.3"),
//	    sensorboard.WithRefreshInterval(5 * time.Second),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	sb.Start(ctx) // blocks until context is cancelled
//
// # Ticks
//
// Every tick performs one GET against the node, with connect and read
// timeouts of 3 seconds each. A 2xx response is parsed by the [Extractor]
// into a reading; a transport error or any other status becomes a failure.
// Each tick appends exactly one entry to the history, which is never
// reordered or truncated.
//
// Ticks never overlap. The first tick fires immediately; a tick that comes
// due while a fetch is still in flight is skipped.
//
// # Extraction
//
// [DefaultExtractor] applies four independent patterns (temperature,
// humidity, MQ-2 gas level and status span). A missing field holds the
// placeholder "Н/Д"; a page without a status span is classified as unknown.
// Use [PatternExtractor] with modified [DefaultRules] when the node's markup
// changes, or [WithExtractor] to replace the strategy entirely.
//
// # Presentation
//
// Outcomes are handed to every [Presenter] after they are recorded. The
// terminal UI, the optional web mirror ([WithWebPort]) and the optional MQTT
// republisher ([WithMQTT]) all observe the same ordered stream. Presenters
// that own a UI thread must marshal updates onto it.
//
// # Status Colors
//
// Status categories map to display colors via [sensor.ColorFor]: normal is
// dark green, warning dark orange, critical dark red and unknown black.
// Failed ticks use [sensor.ErrorColor].
package sensorboard
