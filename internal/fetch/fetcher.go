package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"dashpress/internal/event"
	"dashpress/internal/logging"
	"dashpress/internal/objectstore"
	"dashpress/internal/scratch"
	"dashpress/internal/services"
)

// Fetcher stages the triggering object into scratch space.
type Fetcher struct {
	store  objectstore.Store
	logger *slog.Logger
}

// NewFetcher constructs a fetcher.
func NewFetcher(store objectstore.Store, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{store: store, logger: logger}
}

// Fetch probes the source object's declared size against the scratch ledger
// before transferring any bytes, then downloads it into scratch. A source
// that does not fit fails with SourceTooLarge without touching the body;
// transport failures surface as FetchError and are not retried here.
func (f *Fetcher) Fetch(ctx context.Context, rec event.Record, space *scratch.Space) (string, error) {
	info, err := f.store.Stat(ctx, rec.Bucket, rec.Key)
	if err != nil {
		return "", services.Wrap(services.ErrFetch, "fetch", "probe", rec.Key, err)
	}

	size := info.Size
	if size <= 0 {
		size = rec.Size
	}
	if err := space.Reserve(size); err != nil {
		if errors.Is(err, scratch.ErrBudgetExceeded) {
			return "", services.Wrap(services.ErrSourceTooLarge, "fetch", "probe",
				fmt.Sprintf("%s declares %s", rec.Key, humanize.IBytes(uint64(size))), err)
		}
		return "", services.Wrap(services.ErrFetch, "fetch", "reserve", rec.Key, err)
	}

	localPath := space.Join("source" + rec.Ext())
	if err := f.store.Download(ctx, rec.Bucket, rec.Key, localPath); err != nil {
		return "", services.Wrap(services.ErrFetch, "fetch", "download", rec.Key, err)
	}

	f.logger.Info("source staged",
		logging.String("key", rec.Key),
		logging.String("size", humanize.IBytes(uint64(size))),
		logging.String("path", localPath),
	)
	return localPath, nil
}
