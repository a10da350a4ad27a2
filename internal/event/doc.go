// Package event parses and validates the object-created trigger records that
// start a transcoding job.
package event
