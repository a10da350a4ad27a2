package event

import (
	"errors"
	"testing"

	"dashpress/internal/services"
)

func TestParseFlatRecord(t *testing.T) {
	payload := []byte(`{"bucket":"media-in","key":"movies/night train.mkv","size":1048576,"content_type":"video/x-matroska"}`)
	rec, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if rec.Bucket != "media-in" {
		t.Fatalf("expected bucket media-in, got %q", rec.Bucket)
	}
	if rec.Key != "movies/night train.mkv" {
		t.Fatalf("unexpected key %q", rec.Key)
	}
	if rec.Size != 1048576 {
		t.Fatalf("unexpected size %d", rec.Size)
	}
}

func TestParseNotificationEnvelopeDecodesKey(t *testing.T) {
	payload := []byte(`{
		"Records": [
			{"s3": {"bucket": {"name": "media-in"}, "object": {"key": "movies/night+train.mkv", "size": 2048, "contentType": "video/x-matroska"}}}
		]
	}`)
	rec, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if rec.Bucket != "media-in" {
		t.Fatalf("expected bucket media-in, got %q", rec.Bucket)
	}
	if rec.Key != "movies/night train.mkv" {
		t.Fatalf("expected URL-decoded key, got %q", rec.Key)
	}
	if rec.Size != 2048 {
		t.Fatalf("unexpected size %d", rec.Size)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error for invalid payload")
	} else if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateAcceptsSupportedFormats(t *testing.T) {
	for _, key := range []string{"a.mp4", "b.MKV", "dir/c.mov", "d.avi", "e.webm"} {
		rec := Record{Bucket: "in", Key: key}
		if err := rec.Validate(); err != nil {
			t.Fatalf("expected %q to validate, got %v", key, err)
		}
	}
}

func TestValidateRejectsUnsupportedFormat(t *testing.T) {
	cases := []Record{
		{Bucket: "in", Key: "notes.txt"},
		{Bucket: "in", Key: "archive.tar.gz"},
		{Bucket: "in", Key: "noextension"},
		{Bucket: "", Key: "movie.mp4"},
		{Bucket: "in", Key: ""},
	}
	for _, rec := range cases {
		err := rec.Validate()
		if err == nil {
			t.Fatalf("expected validation failure for %+v", rec)
		}
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", rec, err)
		}
	}
}

func TestBaseName(t *testing.T) {
	cases := []struct {
		key    string
		expect string
	}{
		{"movies/night train.mkv", "night train"},
		{"clip.mp4", "clip"},
		{"a/b/c/show.s01e01.webm", "show.s01e01"},
	}
	for _, tc := range cases {
		rec := Record{Key: tc.key}
		if got := rec.BaseName(); got != tc.expect {
			t.Fatalf("BaseName(%q) = %q, want %q", tc.key, got, tc.expect)
		}
	}
}

func TestValidateDestinationRejectsOutputOverlap(t *testing.T) {
	rec := Record{Bucket: "media", Key: "dash/movie/segment_0_1.m4s"}
	err := rec.ValidateDestination("media", "dash")
	if err == nil {
		t.Fatal("expected overlap rejection")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateDestinationAllowsDistinctBucket(t *testing.T) {
	rec := Record{Bucket: "media-in", Key: "dash/movie.mp4"}
	if err := rec.ValidateDestination("media-out", "dash"); err != nil {
		t.Fatalf("expected distinct bucket to pass, got %v", err)
	}
}

func TestValidateDestinationAllowsDistinctPrefix(t *testing.T) {
	rec := Record{Bucket: "media", Key: "uploads/movie.mp4"}
	if err := rec.ValidateDestination("media", "dash"); err != nil {
		t.Fatalf("expected distinct prefix to pass, got %v", err)
	}
}

func TestValidateDestinationRejectsEmptyPrefixSameBucket(t *testing.T) {
	// With no output prefix every key in the bucket is a potential output.
	rec := Record{Bucket: "media", Key: "uploads/movie.mp4"}
	if err := rec.ValidateDestination("media", ""); err == nil {
		t.Fatal("expected same-bucket empty-prefix rejection")
	}
}
