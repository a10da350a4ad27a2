// Package engine drives the external transcoding engine.
//
// The engine is modeled as an opaque capability: encode one rendition spec
// against a source path, yielding segment files on local disk or a failure.
// FFmpeg is the default implementation; the Driver layers the per-job
// wall-clock ceiling, sequential execution, scratch accounting, and failure
// classification on top of whichever engine is supplied.
package engine
