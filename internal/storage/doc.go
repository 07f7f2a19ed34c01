// Package storage persists module records. The registry only ever
// talks to the Store interface; the file-backed implementation writes
// one JSON document per module, the in-memory one backs tests and
// ephemeral deployments.
package storage
