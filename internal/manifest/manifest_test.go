package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dashpress/internal/engine"
	"dashpress/internal/rendition"
	"dashpress/internal/services"
)

func buildPlan() []rendition.Spec {
	return []rendition.Spec{
		{ID: "0", Width: 1920, Height: 1080, VideoBitrateKbps: 5000, AudioBitrateKbps: 128},
		{ID: "1", Width: 1280, Height: 720, VideoBitrateKbps: 2800, AudioBitrateKbps: 128},
	}
}

func buildTrack(id string, stream int) engine.Track {
	return engine.Track{
		InitPath: "/scratch/encoded/" + engine.InitSegmentName(id, stream),
		SegmentPaths: []string{
			fmt.Sprintf("/scratch/encoded/segment_%s_%d_1.m4s", id, stream),
			fmt.Sprintf("/scratch/encoded/segment_%s_%d_2.m4s", id, stream),
		},
	}
}

func buildResults(durations ...float64) []engine.Result {
	plan := buildPlan()
	results := make([]engine.Result, 0, len(durations))
	for i, duration := range durations {
		results = append(results, engine.Result{
			Spec:            plan[i],
			Video:           buildTrack(plan[i].ID, engine.StreamVideo),
			Audio:           buildTrack(plan[i].ID, engine.StreamAudio),
			DurationSeconds: duration,
		})
	}
	return results
}

func TestBuildUsesMaxDuration(t *testing.T) {
	desc, err := Build(buildPlan(), buildResults(90.0, 90.4), 4, 1.0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if desc.DurationSeconds != 90.4 {
		t.Fatalf("expected max duration 90.4, got %v", desc.DurationSeconds)
	}
	if len(desc.Renditions) != 2 {
		t.Fatalf("expected 2 renditions, got %d", len(desc.Renditions))
	}
}

func TestBuildRejectsDurationDivergence(t *testing.T) {
	_, err := Build(buildPlan(), buildResults(90.0, 92.0), 4, 1.0)
	if !errors.Is(err, services.ErrDurationMismatch) {
		t.Fatalf("expected ErrDurationMismatch, got %v", err)
	}
}

func TestBuildToleratesDivergenceWithinTolerance(t *testing.T) {
	if _, err := Build(buildPlan(), buildResults(90.0, 90.9), 4, 1.0); err != nil {
		t.Fatalf("expected divergence within tolerance to pass, got %v", err)
	}
}

func TestBuildRejectsMissingResult(t *testing.T) {
	_, err := Build(buildPlan(), buildResults(90.0), 4, 1.0)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing rendition, got %v", err)
	}
}

func TestTrackNames(t *testing.T) {
	desc, err := Build(buildPlan(), buildResults(90.0, 90.0), 4, 1.0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	rend := desc.Renditions[0]
	if rend.Video.InitName() != "init_0_0.m4s" {
		t.Fatalf("unexpected video init name %q", rend.Video.InitName())
	}
	if rend.Audio.InitName() != "init_0_1.m4s" {
		t.Fatalf("unexpected audio init name %q", rend.Audio.InitName())
	}
	names := rend.Video.SegmentNames()
	if len(names) != 2 || names[0] != "segment_0_0_1.m4s" || names[1] != "segment_0_0_2.m4s" {
		t.Fatalf("unexpected video segment names %v", names)
	}
	names = rend.Audio.SegmentNames()
	if len(names) != 2 || names[0] != "segment_0_1_1.m4s" || names[1] != "segment_0_1_2.m4s" {
		t.Fatalf("unexpected audio segment names %v", names)
	}
}

func TestMarshalMPDDeterministic(t *testing.T) {
	desc, err := Build(buildPlan(), buildResults(90.0, 90.0), 4, 1.0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	first, err := MarshalMPD(desc)
	if err != nil {
		t.Fatalf("MarshalMPD returned error: %v", err)
	}
	second, err := MarshalMPD(desc)
	if err != nil {
		t.Fatalf("MarshalMPD returned error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("expected byte-identical manifests for the same descriptor")
	}
}

func TestMarshalMPDContent(t *testing.T) {
	desc, err := Build(buildPlan(), buildResults(90.5, 90.5), 4, 1.0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	data, err := MarshalMPD(desc)
	if err != nil {
		t.Fatalf("MarshalMPD returned error: %v", err)
	}
	doc := string(data)

	for _, want := range []string{
		`type="static"`,
		`mediaPresentationDuration="PT1M30.5S"`,
		`contentType="video"`,
		`contentType="audio"`,
		`mimeType="video/mp4"`,
		`mimeType="audio/mp4"`,
		`initialization="init_0_0.m4s"`,
		`initialization="init_0_1.m4s"`,
		`media="segment_1_0_$Number$.m4s"`,
		`media="segment_1_1_$Number$.m4s"`,
		`bandwidth="5000000"`,
		`bandwidth="2800000"`,
		`bandwidth="128000"`,
		`width="1920"`,
		`height="720"`,
		`timescale="1000"`,
		`duration="4000"`,
		`startNumber="1"`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected manifest to contain %s, got:\n%s", want, doc)
		}
	}
	// Audio representations carry no video geometry.
	if strings.Contains(doc, `id="0_1" bandwidth="128000" width=`) {
		t.Fatalf("audio representation must not carry dimensions:\n%s", doc)
	}
}

func TestFormatISODuration(t *testing.T) {
	cases := []struct {
		seconds float64
		expect  string
	}{
		{48, "PT48S"},
		{90.5, "PT1M30.5S"},
		{3723, "PT1H2M3S"},
		{0, "PT0S"},
		{-1, "PT0S"},
	}
	for _, tc := range cases {
		if got := formatISODuration(tc.seconds); got != tc.expect {
			t.Fatalf("formatISODuration(%v) = %q, want %q", tc.seconds, got, tc.expect)
		}
	}
}
