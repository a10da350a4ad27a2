package engine

import (
	"context"
	"fmt"
	"os"

	"dashpress/internal/rendition"
)

// DASH representation stream indexes within one rendition's output. The
// muxer numbers representations by output stream order: the mapped video
// stream first, the audio stream second.
const (
	StreamVideo = 0
	StreamAudio = 1
)

// Track is one representation's segment set on local disk: an init segment
// plus ordered media segments.
type Track struct {
	InitPath     string
	SegmentPaths []string
}

func (t Track) paths() []string {
	return append([]string{t.InitPath}, t.SegmentPaths...)
}

// Result describes one encoded rendition on local disk. Each rendition
// carries a video and an audio track since the DASH muxer emits one
// representation per mapped stream. It is owned by the driver until handed
// to the packager and never mutated after creation.
type Result struct {
	Spec            rendition.Spec
	Video           Track
	Audio           Track
	DurationSeconds float64
	Diagnostics     string
}

// TotalBytes sums the on-disk size of the rendition's init and media
// segments across both tracks. Files that vanished count as zero.
func (r Result) TotalBytes() int64 {
	var total int64
	for _, path := range append(r.Video.paths(), r.Audio.paths()...) {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return total
}

// InitSegmentName returns the on-disk init segment name for one rendition's
// stream, matching the template handed to the muxer.
func InitSegmentName(id string, stream int) string {
	return fmt.Sprintf("init_%s_%d.m4s", id, stream)
}

// MediaSegmentTemplate returns the media segment name pattern for one
// rendition's stream with the segment number left as a $Number$ placeholder,
// as DASH manifests reference it.
func MediaSegmentTemplate(id string, stream int) string {
	return fmt.Sprintf("segment_%s_%d_$Number$.m4s", id, stream)
}

// Engine encodes one rendition spec against a source file, yielding video
// and audio tracks in outputDir. Any engine binary satisfying this contract
// is substitutable.
type Engine interface {
	Encode(ctx context.Context, inputPath, outputDir string, spec rendition.Spec, segmentSeconds int) (Result, error)
}
