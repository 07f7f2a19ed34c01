// Package resolver answers every dependency question the registry has:
// whether a candidate module's declared dependencies are satisfiable,
// who depends on whom, whether removal is safe, and in what order a
// batch of modules can be installed.
//
// The resolver never mutates anything. It reads the currently known
// modules through the narrow Catalog interface and returns structured
// results; malformed input yields conflicts, not panics. Version ranges
// use caret/tilde/exact semantics (see the semver package).
package resolver
