// Package rendition computes the resolution/bitrate ladder a source video is
// transcoded into.
package rendition
