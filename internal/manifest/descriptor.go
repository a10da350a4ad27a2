package manifest

import (
	"fmt"
	"path/filepath"

	"dashpress/internal/engine"
	"dashpress/internal/rendition"
	"dashpress/internal/services"
)

// FileName is the published manifest object name.
const FileName = "manifest.mpd"

// Track is one representation's segment layout.
type Track struct {
	InitPath     string
	SegmentPaths []string
}

// InitName returns the init segment's object name.
func (t Track) InitName() string {
	return filepath.Base(t.InitPath)
}

// SegmentNames returns the ordered media segment object names.
func (t Track) SegmentNames() []string {
	names := make([]string, 0, len(t.SegmentPaths))
	for _, path := range t.SegmentPaths {
		names = append(names, filepath.Base(path))
	}
	return names
}

// Rendition maps one spec to its encoded video and audio tracks.
type Rendition struct {
	Spec            rendition.Spec
	Video           Track
	Audio           Track
	DurationSeconds float64
}

// Descriptor is the complete mapping from plan to segment layout; the
// manifest file is serialized from it and from nothing else.
type Descriptor struct {
	Renditions      []Rendition
	DurationSeconds float64
	SegmentSeconds  int
}

// Build assembles a Descriptor from the encoded renditions. Every spec in
// the plan must have a corresponding result; rendition durations must agree
// within toleranceSeconds since adaptive playback assumes aligned timelines.
// The overall presentation duration is the maximum across renditions.
func Build(plan []rendition.Spec, results []engine.Result, segmentSeconds int, toleranceSeconds float64) (Descriptor, error) {
	byID := make(map[string]engine.Result, len(results))
	for _, result := range results {
		byID[result.Spec.ID] = result
	}

	desc := Descriptor{
		Renditions:     make([]Rendition, 0, len(plan)),
		SegmentSeconds: segmentSeconds,
	}

	var minDuration, maxDuration float64
	for i, spec := range plan {
		result, ok := byID[spec.ID]
		if !ok {
			return Descriptor{}, services.Wrap(services.ErrValidation, "package", "build",
				"missing encoded rendition "+spec.ID, nil)
		}
		desc.Renditions = append(desc.Renditions, Rendition{
			Spec:            spec,
			Video:           newTrack(result.Video),
			Audio:           newTrack(result.Audio),
			DurationSeconds: result.DurationSeconds,
		})
		if i == 0 || result.DurationSeconds < minDuration {
			minDuration = result.DurationSeconds
		}
		if result.DurationSeconds > maxDuration {
			maxDuration = result.DurationSeconds
		}
	}

	if maxDuration-minDuration > toleranceSeconds {
		return Descriptor{}, services.Wrap(services.ErrDurationMismatch, "package", "build",
			fmt.Sprintf("rendition durations diverge by %.2fs (tolerance %.2fs)", maxDuration-minDuration, toleranceSeconds), nil)
	}

	desc.DurationSeconds = maxDuration
	return desc, nil
}

func newTrack(t engine.Track) Track {
	return Track{
		InitPath:     t.InitPath,
		SegmentPaths: append([]string(nil), t.SegmentPaths...),
	}
}
