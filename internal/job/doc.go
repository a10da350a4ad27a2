// Package job models one transcoding request and sequences it through the
// pipeline.
//
// The lifecycle is an explicit state machine (pending, fetching, planning,
// transcoding, packaging, publishing, completed, with failed reachable from
// every non-terminal state) rather than nested failure handling; a single
// deferred cleanup hook guarantees scratch release exactly once on every
// exit path. Failures record the state they originated from and the
// classified error kind.
package job
