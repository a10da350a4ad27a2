// Package scratch manages the bounded, ephemeral working directories jobs
// stage media in.
//
// Each job acquires one Space with a hard byte ceiling; bytes are charged to
// an explicit ledger before they are written so budget violations surface as
// an early, classified failure instead of a late filesystem error. Release
// is idempotent and must run exactly once per acquire, on every exit path.
package scratch
