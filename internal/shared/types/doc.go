// Package types defines the shared data model for the module runtime:
// module descriptors, lifecycle state, persistence records, operation
// results, and query filters. Descriptors are immutable after
// registration; every accessor that hands one out returns a deep copy.
package types
