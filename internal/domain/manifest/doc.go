// Package manifest validates module descriptors before they reach the
// registry. Validation is pure: no I/O, no mutation, and malformed input
// never panics, it just yields an invalid result with every problem
// enumerated. Blocking problems land in Errors; advisory ones in Warnings.
package manifest
