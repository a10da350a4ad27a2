// Package manifest assembles the DASH package description and serializes
// the MPD document.
//
// Build validates that every planned rendition was encoded and that the
// rendition timelines agree; MarshalMPD renders a deterministic
// static-profile manifest whose bytes land fully in scratch so a partially
// written manifest is never visible at the destination.
package manifest
