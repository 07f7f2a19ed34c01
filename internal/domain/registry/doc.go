// Package registry is the stateful orchestrator of the module runtime.
//
// The Manager holds the in-memory table of module descriptors and their
// lifecycle state, sequences install/enable/disable/unregister
// operations, consults the manifest validator and the dependency
// resolver before committing any transition, persists through the
// storage collaborator, and emits lifecycle events.
//
// Components:
//   - Manager: lifecycle state machine and queries
//   - Seeder: loads starter module manifests from disk on startup
//   - event bus: typed publish/subscribe with a wildcard kind
//
// Concurrency: mutating operations serialize on a single mutex and run
// to completion, including their hook and storage calls. Read queries
// take a shared lock and return copies. Event handlers run synchronously
// on the emitting goroutine: they must be fast and must not call back
// into the Manager.
package registry
