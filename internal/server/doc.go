// Package server exposes the deployment orchestrator and the location
// history over HTTP.
//
// This package provides:
//   - POST /deploy, which runs one orchestrated deployment with the target
//     taken from the request body instead of an interactive prompt
//   - GET /history and GET /history/{name} for reading remembered locations
//   - Health endpoint for monitoring
//   - Per-IP rate limiting and structured logging of all HTTP requests
//
// The server integrates with other packages:
//   - internal/project: workspace projects and selections
//   - internal/deployment: orchestrator, locking and output copying
//   - internal/history: location history manager
//   - internal/notify: collecting warnings and errors for the response
//
// Only one deployment runs at a time; a concurrent POST /deploy gets 409.
package server
