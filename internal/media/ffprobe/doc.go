// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The planner consumes the source's native video height; the fetch stage
// relies on the declared container size. Inspect is the primary entry point.
package ffprobe
