package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dashpress/internal/event"
	"dashpress/internal/scratch"
	"dashpress/internal/services"
	"dashpress/internal/testsupport"
)

func fetchSpace(t *testing.T, budget int64) *scratch.Space {
	t.Helper()
	manager := scratch.NewManager(filepath.Join(t.TempDir(), "scratch"), nil)
	space, err := manager.Acquire(context.Background(), budget)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	t.Cleanup(func() { _ = space.Release() })
	return space
}

func TestFetchStagesSourceIntoScratch(t *testing.T) {
	store := testsupport.NewMemoryStore()
	store.Put("media-in", "movies/clip.mp4", []byte("source-bytes"), "video/mp4")
	space := fetchSpace(t, 1<<20)

	fetcher := NewFetcher(store, nil)
	rec := event.Record{Bucket: "media-in", Key: "movies/clip.mp4"}
	localPath, err := fetcher.Fetch(context.Background(), rec, space)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if filepath.Base(localPath) != "source.mp4" {
		t.Fatalf("expected staged file source.mp4, got %s", localPath)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(data) != "source-bytes" {
		t.Fatalf("unexpected staged content %q", data)
	}
	if space.Used() != int64(len("source-bytes")) {
		t.Fatalf("expected declared size charged, used=%d", space.Used())
	}
}

func TestFetchOversizedSourceFailsBeforeTransfer(t *testing.T) {
	store := testsupport.NewMemoryStore()
	store.Put("media-in", "movies/huge.mkv", make([]byte, 256), "video/x-matroska")
	space := fetchSpace(t, 64)

	fetcher := NewFetcher(store, nil)
	rec := event.Record{Bucket: "media-in", Key: "movies/huge.mkv"}
	_, err := fetcher.Fetch(context.Background(), rec, space)

	if !errors.Is(err, services.ErrSourceTooLarge) {
		t.Fatalf("expected ErrSourceTooLarge, got %v", err)
	}
	if store.DownloadCalls != 0 {
		t.Fatalf("expected zero transfers for oversized source, got %d", store.DownloadCalls)
	}
	if space.Used() != 0 {
		t.Fatalf("expected no bytes charged, used=%d", space.Used())
	}
}

func TestFetchStatFailureClassifiedAsFetch(t *testing.T) {
	store := testsupport.NewMemoryStore()
	store.FailStat = true
	space := fetchSpace(t, 1<<20)

	fetcher := NewFetcher(store, nil)
	rec := event.Record{Bucket: "media-in", Key: "movies/clip.mp4"}
	_, err := fetcher.Fetch(context.Background(), rec, space)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if store.DownloadCalls != 0 {
		t.Fatalf("expected no download after failed probe, got %d", store.DownloadCalls)
	}
}

func TestFetchDownloadFailureClassifiedAsFetch(t *testing.T) {
	store := testsupport.NewMemoryStore()
	store.Put("media-in", "movies/clip.mp4", []byte("source"), "video/mp4")
	store.FailDownload = true
	space := fetchSpace(t, 1<<20)

	fetcher := NewFetcher(store, nil)
	rec := event.Record{Bucket: "media-in", Key: "movies/clip.mp4"}
	_, err := fetcher.Fetch(context.Background(), rec, space)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestFetchFallsBackToDeclaredEventSize(t *testing.T) {
	store := testsupport.NewMemoryStore()
	store.Put("media-in", "movies/empty.mp4", nil, "video/mp4")
	space := fetchSpace(t, 1<<10)

	fetcher := NewFetcher(store, nil)
	rec := event.Record{Bucket: "media-in", Key: "movies/empty.mp4", Size: 512}
	if _, err := fetcher.Fetch(context.Background(), rec, space); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if space.Used() != 512 {
		t.Fatalf("expected event-declared size charged, used=%d", space.Used())
	}
}
