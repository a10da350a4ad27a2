package engine

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"dashpress/internal/rendition"
)

var commandContext = exec.CommandContext

const diagnosticsLimit = 4096

// Option configures the ffmpeg engine.
type Option func(*FFmpeg)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// FFmpeg drives the ffmpeg command-line encoder, one isolated subprocess per
// rendition.
type FFmpeg struct {
	binary string
}

// NewFFmpeg constructs an engine using defaults.
func NewFFmpeg(opts ...Option) *FFmpeg {
	eng := &FFmpeg{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Encode runs ffmpeg's DASH muxer for a single rendition. The muxer emits
// one representation per mapped stream, so segments land in outputDir as
// init_{id}_{stream}.m4s and segment_{id}_{stream}_{n}.m4s with stream 0
// carrying video and stream 1 audio; the muxer's own per-rendition manifest
// supplies the measured duration.
func (f *FFmpeg) Encode(ctx context.Context, inputPath, outputDir string, spec rendition.Spec, segmentSeconds int) (Result, error) {
	if strings.TrimSpace(inputPath) == "" {
		return Result{}, errors.New("input path required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return Result{}, errors.New("output directory required")
	}
	if segmentSeconds <= 0 {
		return Result{}, fmt.Errorf("invalid segment duration %d", segmentSeconds)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	args := buildArgs(inputPath, outputDir, spec, segmentSeconds)
	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	diagnostics := tail(stderr.String(), diagnosticsLimit)
	if runErr != nil {
		return Result{Spec: spec, Diagnostics: diagnostics},
			fmt.Errorf("ffmpeg rendition %s: %w: %s", spec.ID, runErr, diagnostics)
	}

	video, err := collectTrack(outputDir, spec.ID, StreamVideo)
	if err != nil {
		return Result{Spec: spec, Diagnostics: diagnostics},
			fmt.Errorf("ffmpeg rendition %s: video track: %w", spec.ID, err)
	}
	audio, err := collectTrack(outputDir, spec.ID, StreamAudio)
	if err != nil {
		return Result{Spec: spec, Diagnostics: diagnostics},
			fmt.Errorf("ffmpeg rendition %s: audio track: %w", spec.ID, err)
	}

	duration, err := manifestDuration(filepath.Join(outputDir, renditionManifestName(spec.ID)))
	if err != nil {
		return Result{Spec: spec, Diagnostics: diagnostics},
			fmt.Errorf("ffmpeg rendition %s: %w", spec.ID, err)
	}

	return Result{
		Spec:            spec,
		Video:           video,
		Audio:           audio,
		DurationSeconds: duration,
		Diagnostics:     diagnostics,
	}, nil
}

func buildArgs(inputPath, outputDir string, spec rendition.Spec, segmentSeconds int) []string {
	filter := fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,"+
			"pad=width=ceil(iw/2)*2:height=ceil(ih/2)*2:x=(ow-iw)/2:y=(oh-ih)/2,"+
			"format=yuv420p,setsar=1[v];[0:a]aresample=async=1[a]",
		spec.Width, spec.Height,
	)
	videoRate := strconv.Itoa(spec.VideoBitrateKbps) + "k"
	bufferSize := strconv.Itoa(spec.VideoBitrateKbps*2) + "k"
	audioRate := strconv.Itoa(spec.AudioBitrateKbps) + "k"

	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", inputPath,
		"-filter_complex", filter,
		"-map", "[v]", "-map", "[a]",
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-b:v", videoRate, "-maxrate", videoRate, "-bufsize", bufferSize,
		"-c:a", "aac", "-b:a", audioRate,
		"-f", "dash",
		"-seg_duration", strconv.Itoa(segmentSeconds),
		"-use_timeline", "1", "-use_template", "1",
		// The muxer expands $RepresentationID$ to the output stream index,
		// keeping the video and audio representations' files apart.
		"-init_seg_name", "init_" + spec.ID + "_$RepresentationID$.m4s",
		"-media_seg_name", "segment_" + spec.ID + "_$RepresentationID$_$Number$.m4s",
		"-adaptation_sets", "id=0,streams=v id=1,streams=a",
		filepath.Join(outputDir, renditionManifestName(spec.ID)),
	}
}

func renditionManifestName(id string) string {
	return "rendition_" + id + ".mpd"
}

// collectTrack gathers one stream's init segment and media segments ordered
// by segment number.
func collectTrack(outputDir, id string, stream int) (Track, error) {
	initPath := filepath.Join(outputDir, InitSegmentName(id, stream))
	if _, err := os.Stat(initPath); err != nil {
		return Track{}, fmt.Errorf("missing init segment: %w", err)
	}
	segments, err := collectSegments(outputDir, id, stream)
	if err != nil {
		return Track{}, err
	}
	if len(segments) == 0 {
		return Track{}, errors.New("no media segments produced")
	}
	return Track{InitPath: initPath, SegmentPaths: segments}, nil
}

// collectSegments lists one stream's media segments ordered by segment number.
func collectSegments(outputDir, id string, stream int) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("scan output directory: %w", err)
	}

	prefix := fmt.Sprintf("segment_%s_%d_", id, stream)
	type numbered struct {
		number int
		path   string
	}
	var found []numbered
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".m4s") {
			continue
		}
		numberText := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".m4s")
		number, convErr := strconv.Atoi(numberText)
		if convErr != nil {
			continue
		}
		found = append(found, numbered{number: number, path: filepath.Join(outputDir, name)})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].number < found[j].number })

	segments := make([]string, 0, len(found))
	for _, seg := range found {
		segments = append(segments, seg.path)
	}
	return segments, nil
}

// manifestDuration extracts mediaPresentationDuration from the per-rendition
// manifest the DASH muxer writes.
func manifestDuration(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rendition manifest: %w", err)
	}
	var doc struct {
		XMLName                   xml.Name `xml:"MPD"`
		MediaPresentationDuration string   `xml:"mediaPresentationDuration,attr"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("parse rendition manifest: %w", err)
	}
	seconds, err := parseISODuration(doc.MediaPresentationDuration)
	if err != nil {
		return 0, fmt.Errorf("parse rendition manifest duration: %w", err)
	}
	return seconds, nil
}

// parseISODuration converts an ISO 8601 time duration (PT#H#M#S) to seconds.
func parseISODuration(value string) (float64, error) {
	text := strings.TrimSpace(value)
	if !strings.HasPrefix(text, "PT") {
		return 0, fmt.Errorf("unsupported duration %q", value)
	}
	text = strings.TrimPrefix(text, "PT")
	if text == "" {
		return 0, fmt.Errorf("unsupported duration %q", value)
	}

	var total float64
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case 'H', 'M', 'S':
			number, err := strconv.ParseFloat(text[start:i], 64)
			if err != nil {
				return 0, fmt.Errorf("unsupported duration %q", value)
			}
			switch text[i] {
			case 'H':
				total += number * 3600
			case 'M':
				total += number * 60
			case 'S':
				total += number
			}
			start = i + 1
		}
	}
	if start != len(text) {
		return 0, fmt.Errorf("unsupported duration %q", value)
	}
	return total, nil
}

func tail(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[len(text)-limit:]
}

var _ Engine = (*FFmpeg)(nil)
