// Package main is the entry point for the Solstreak module registry
// service.
//
// The service manages the lifecycle of gamification modules for the
// Solstreak goal tracker: registering module manifests, resolving
// dependency graphs, persisting install state and streaming lifecycle
// events to connected clients.
//
// The server provides:
//   - REST API for module registration and lifecycle control
//   - WebSocket streaming of lifecycle events
//   - YAML seed manifests loaded on startup
//   - Prometheus metrics and rate limiting
//
// Configuration is read from SOLSTREAK_* environment variables
// (12-factor); see the config package for the full list.
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
