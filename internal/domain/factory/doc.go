// Package factory assembles conforming module descriptors from raw
// configuration: it fills documented defaults, normalizes metadata,
// supports clone-with-overrides, and refuses to hand out anything the
// manifest validator rejects.
package factory
