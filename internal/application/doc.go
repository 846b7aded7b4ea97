// Package application provides application initialization and dependency wiring.
// It creates the default-method storage, result cache, Prometheus registry,
// handlers, routers and the HTTP server, keeping the main package focused on
// CLI parsing and orchestration.
package application
