package objectstore

import "context"

// ObjectInfo is the metadata returned by a probe.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Store is the object storage capability the pipeline needs: a metadata
// probe, a download into a local file, and an upload from a local file.
// Transfers are not retried here; retry policy belongs to the invoking layer.
type Store interface {
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	Download(ctx context.Context, bucket, key, localPath string) error
	Upload(ctx context.Context, bucket, key, localPath, contentType string) error
}
