// Package dashboard provides the embedded web UI assets for SensorBoard.
//
// This package uses Go's embed directive to include the dashboard HTML, CSS,
// and JavaScript at compile time. This enables single-binary deployment
// without external asset files.
//
// The embedded assets are served by the server package at the root path ("/")
// when the web mirror is enabled.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Dashboard page with inline CSS and JavaScript
//
// The page carries two placeholders substituted by the server: {{.Title}}
// and {{.Interval}} (refresh interval in seconds).
//
//go:embed assets/*
var Assets embed.FS
