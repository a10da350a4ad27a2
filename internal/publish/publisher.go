package publish

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"dashpress/internal/logging"
	"dashpress/internal/manifest"
	"dashpress/internal/objectstore"
	"dashpress/internal/services"
)

const (
	manifestContentType     = "application/dash+xml"
	videoSegmentContentType = "video/mp4"
	audioSegmentContentType = "audio/mp4"
)

// Publisher uploads a packaged rendition set to the output bucket.
type Publisher struct {
	store  objectstore.Store
	bucket string
	logger *slog.Logger
}

// NewPublisher constructs a publisher targeting bucket.
func NewPublisher(store objectstore.Store, bucket string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{store: store, bucket: bucket, logger: logger}
}

// Publish uploads every init and media segment first and the manifest
// strictly last, so a consumer polling the destination never sees a manifest
// whose referenced segments are missing. The first transport failure fails
// the job; previously uploaded objects are not rolled back since an
// idempotent re-run overwrites them identically. Returns the published keys
// in upload order.
func (p *Publisher) Publish(ctx context.Context, desc manifest.Descriptor, manifestPath, destPrefix string) ([]string, error) {
	prefix := strings.Trim(destPrefix, "/")
	published := make([]string, 0, totalObjects(desc))

	var err error
	for _, rend := range desc.Renditions {
		if published, err = p.uploadTrack(ctx, published, prefix, rend.Video, videoSegmentContentType); err != nil {
			return published, err
		}
		if published, err = p.uploadTrack(ctx, published, prefix, rend.Audio, audioSegmentContentType); err != nil {
			return published, err
		}
	}

	manifestKey := path.Join(prefix, manifest.FileName)
	if err := p.store.Upload(ctx, p.bucket, manifestKey, manifestPath, manifestContentType); err != nil {
		return published, services.Wrap(services.ErrPublish, "publish", "upload manifest", manifestKey, err)
	}
	published = append(published, manifestKey)

	p.logger.Info("package published",
		logging.String("bucket", p.bucket),
		logging.String("prefix", prefix),
		logging.Int("objects", len(published)),
	)
	return published, nil
}

// uploadTrack pushes one track's init segment then its media segments,
// appending each published key in upload order.
func (p *Publisher) uploadTrack(ctx context.Context, published []string, prefix string, track manifest.Track, contentType string) ([]string, error) {
	key := path.Join(prefix, track.InitName())
	if err := p.store.Upload(ctx, p.bucket, key, track.InitPath, contentType); err != nil {
		return published, services.Wrap(services.ErrPublish, "publish", "upload", key, err)
	}
	published = append(published, key)

	names := track.SegmentNames()
	for i, segmentPath := range track.SegmentPaths {
		key := path.Join(prefix, names[i])
		if err := p.store.Upload(ctx, p.bucket, key, segmentPath, contentType); err != nil {
			return published, services.Wrap(services.ErrPublish, "publish", "upload", key, err)
		}
		published = append(published, key)
	}
	return published, nil
}

func totalObjects(desc manifest.Descriptor) int {
	total := 1
	for _, rend := range desc.Renditions {
		total += 2 + len(rend.Video.SegmentPaths) + len(rend.Audio.SegmentPaths)
	}
	return total
}
