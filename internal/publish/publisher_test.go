package publish

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dashpress/internal/manifest"
	"dashpress/internal/rendition"
	"dashpress/internal/services"
	"dashpress/internal/testsupport"
)

func packageOnDisk(t *testing.T) (manifest.Descriptor, string) {
	t.Helper()
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		testsupport.WriteFile(t, path, 32)
		return path
	}
	track := func(init string, segments ...string) manifest.Track {
		paths := make([]string, 0, len(segments))
		for _, segment := range segments {
			paths = append(paths, write(segment))
		}
		return manifest.Track{InitPath: write(init), SegmentPaths: paths}
	}

	desc := manifest.Descriptor{
		Renditions: []manifest.Rendition{
			{
				Spec:            rendition.Spec{ID: "0", Width: 1920, Height: 1080},
				Video:           track("init_0_0.m4s", "segment_0_0_1.m4s", "segment_0_0_2.m4s"),
				Audio:           track("init_0_1.m4s", "segment_0_1_1.m4s", "segment_0_1_2.m4s"),
				DurationSeconds: 48,
			},
			{
				Spec:            rendition.Spec{ID: "1", Width: 1280, Height: 720},
				Video:           track("init_1_0.m4s", "segment_1_0_1.m4s"),
				Audio:           track("init_1_1.m4s", "segment_1_1_1.m4s"),
				DurationSeconds: 48,
			},
		},
		DurationSeconds: 48,
		SegmentSeconds:  4,
	}
	return desc, write(manifest.FileName)
}

func TestPublishUploadsManifestLast(t *testing.T) {
	store := testsupport.NewMemoryStore()
	desc, manifestPath := packageOnDisk(t)

	publisher := NewPublisher(store, "media-out", nil)
	keys, err := publisher.Publish(context.Background(), desc, manifestPath, "dash/clip")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if len(keys) != 11 {
		t.Fatalf("expected 11 published objects, got %v", keys)
	}
	last := store.UploadOrder[len(store.UploadOrder)-1]
	if last != "dash/clip/manifest.mpd" {
		t.Fatalf("expected manifest uploaded last, order=%v", store.UploadOrder)
	}
	for _, key := range store.UploadOrder[:len(store.UploadOrder)-1] {
		if filepath.Base(key) == manifest.FileName {
			t.Fatalf("manifest appeared before segments, order=%v", store.UploadOrder)
		}
	}
}

func TestPublishKeysCarryDestinationPrefix(t *testing.T) {
	store := testsupport.NewMemoryStore()
	desc, manifestPath := packageOnDisk(t)

	publisher := NewPublisher(store, "media-out", nil)
	keys, err := publisher.Publish(context.Background(), desc, manifestPath, "/dash/clip/")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	for _, key := range keys {
		if filepath.Dir(key) != "dash/clip" {
			t.Fatalf("expected key under dash/clip, got %q", key)
		}
	}
}

func TestPublishMidFailureNeverUploadsManifest(t *testing.T) {
	store := testsupport.NewMemoryStore()
	desc, manifestPath := packageOnDisk(t)
	store.FailUploadKey = "dash/clip/segment_1_1_1.m4s"

	publisher := NewPublisher(store, "media-out", nil)
	_, err := publisher.Publish(context.Background(), desc, manifestPath, "dash/clip")
	if !errors.Is(err, services.ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
	if _, ok := store.Object("media-out", "dash/clip/manifest.mpd"); ok {
		t.Fatal("manifest must not be published after a segment failure")
	}
}

func TestPublishContentTypes(t *testing.T) {
	store := testsupport.NewMemoryStore()
	desc, manifestPath := packageOnDisk(t)

	publisher := NewPublisher(store, "media-out", nil)
	if _, err := publisher.Publish(context.Background(), desc, manifestPath, "dash/clip"); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	cases := []struct {
		key    string
		expect string
	}{
		{"dash/clip/manifest.mpd", "application/dash+xml"},
		{"dash/clip/init_0_0.m4s", "video/mp4"},
		{"dash/clip/segment_0_0_1.m4s", "video/mp4"},
		{"dash/clip/init_0_1.m4s", "audio/mp4"},
		{"dash/clip/segment_0_1_2.m4s", "audio/mp4"},
	}
	for _, tc := range cases {
		info, err := store.Stat(context.Background(), "media-out", tc.key)
		if err != nil {
			t.Fatalf("stat %s: %v", tc.key, err)
		}
		if info.ContentType != tc.expect {
			t.Fatalf("expected %s content type %q, got %q", tc.key, tc.expect, info.ContentType)
		}
	}
}
