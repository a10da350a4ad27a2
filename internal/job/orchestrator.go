package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dashpress/internal/config"
	"dashpress/internal/engine"
	"dashpress/internal/event"
	"dashpress/internal/fetch"
	"dashpress/internal/journal"
	"dashpress/internal/logging"
	"dashpress/internal/manifest"
	"dashpress/internal/media/ffprobe"
	"dashpress/internal/objectstore"
	"dashpress/internal/publish"
	"dashpress/internal/rendition"
	"dashpress/internal/scratch"
	"dashpress/internal/services"
)

// Prober inspects a staged source file for planning metadata.
type Prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Orchestrator sequences one job through the pipeline's status machine and
// guarantees scratch release on every exit path.
type Orchestrator struct {
	cfg       *config.Config
	scratch   *scratch.Manager
	fetcher   *fetch.Fetcher
	driver    *engine.Driver
	publisher *publish.Publisher
	journal   Journal
	probe     Prober
	logger    *slog.Logger
}

// Journal is the subset of the journal store the orchestrator records to.
type Journal interface {
	Insert(ctx context.Context, rec *journal.Record) error
	Update(ctx context.Context, rec *journal.Record) error
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithJournal attaches a job-history store.
func WithJournal(j Journal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

// WithProber overrides the source probe.
func WithProber(p Prober) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.probe = p
		}
	}
}

// NewOrchestrator wires the pipeline stages around the supplied object store
// and transcoding engine.
func NewOrchestrator(cfg *config.Config, store objectstore.Store, eng engine.Engine, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		cfg:       cfg,
		scratch:   scratch.NewManager(cfg.Paths.ScratchDir, logger),
		fetcher:   fetch.NewFetcher(store, logger),
		driver:    engine.NewDriver(eng, cfg.Transcode.SegmentSeconds, cfg.JobTimeout(), logger),
		publisher: publish.NewPublisher(store, cfg.Storage.OutputBucket, logger),
		probe:     ffprobe.Inspect,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run drives one trigger record to a terminal status. The returned Job
// carries the outcome either way; the error is non-nil exactly when the job
// failed.
func (o *Orchestrator) Run(ctx context.Context, rec event.Record) (*Job, error) {
	j := New(rec, o.cfg.Storage.OutputPrefix)
	ctx = logging.WithJobID(ctx, j.ID)
	logger := logging.WithContext(ctx, o.logger)

	logger.Info("job accepted",
		logging.String("source_bucket", rec.Bucket),
		logging.String("source_key", rec.Key),
		logging.String("destination_prefix", j.DestinationPrefix),
	)
	o.recordInsert(ctx, logger, j)

	if err := rec.Validate(); err != nil {
		return o.fail(ctx, logger, j, err)
	}
	if err := rec.ValidateDestination(o.cfg.Storage.OutputBucket, o.cfg.Storage.OutputPrefix); err != nil {
		return o.fail(ctx, logger, j, err)
	}

	space, err := o.scratch.Acquire(ctx, o.cfg.ScratchBudgetBytes())
	if err != nil {
		return o.fail(ctx, logger, j, err)
	}
	defer func() {
		// Cleanup never masks the job's outcome; a failed release is logged
		// and the original error kind stands.
		if releaseErr := space.Release(); releaseErr != nil {
			logger.Error("scratch release failed",
				logging.Error(releaseErr),
				logging.String(logging.FieldEventType, "scratch_release_failed"),
			)
		}
	}()

	if err := o.advance(j, StatusFetching); err != nil {
		return o.fail(ctx, logger, j, err)
	}
	localPath, err := o.fetcher.Fetch(logging.WithStage(ctx, "fetch"), rec, space)
	if err != nil {
		return o.fail(ctx, logger, j, err)
	}

	if err := o.advance(j, StatusPlanning); err != nil {
		return o.fail(ctx, logger, j, err)
	}
	probed, err := o.probe(ctx, o.cfg.Transcode.FFprobe, localPath)
	if err != nil {
		return o.fail(ctx, logger, j, services.Wrap(services.ErrProbe, "plan", "probe", localPath, err))
	}
	plan, err := rendition.Plan(probed.VideoHeight(), o.cfg.Transcode.LadderHeights)
	if err != nil {
		return o.fail(ctx, logger, j, err)
	}
	j.Renditions = len(plan)
	logger.Info("rendition plan computed",
		logging.Int("source_height", probed.VideoHeight()),
		logging.Int("renditions", len(plan)),
	)

	if err := o.advance(j, StatusTranscoding); err != nil {
		return o.fail(ctx, logger, j, err)
	}
	results, err := o.driver.Encode(logging.WithStage(ctx, "transcode"), localPath, plan, space)
	if err != nil {
		return o.fail(ctx, logger, j, err)
	}

	if err := o.advance(j, StatusPackaging); err != nil {
		return o.fail(ctx, logger, j, err)
	}
	desc, err := manifest.Build(plan, results, o.cfg.Transcode.SegmentSeconds, o.cfg.Transcode.DurationToleranceSeconds)
	if err != nil {
		return o.fail(ctx, logger, j, err)
	}
	manifestPath, err := writeManifest(desc, space)
	if err != nil {
		return o.fail(ctx, logger, j, err)
	}

	if err := o.advance(j, StatusPublishing); err != nil {
		return o.fail(ctx, logger, j, err)
	}
	keys, err := o.publisher.Publish(logging.WithStage(ctx, "publish"), desc, manifestPath, j.DestinationPrefix)
	if err != nil {
		return o.fail(ctx, logger, j, err)
	}
	j.PublishedKeys = keys

	if err := o.advance(j, StatusCompleted); err != nil {
		return o.fail(ctx, logger, j, err)
	}
	o.recordUpdate(ctx, logger, j)
	logger.Info("job completed",
		logging.Int("renditions", j.Renditions),
		logging.Int("published_objects", len(keys)),
		logging.Float64("duration_seconds", desc.DurationSeconds),
	)
	return j, nil
}

// writeManifest charges the manifest bytes to the ledger before they land
// on disk, keeping the reserve-before-write invariant.
func writeManifest(desc manifest.Descriptor, space *scratch.Space) (string, error) {
	data, err := manifest.MarshalMPD(desc)
	if err != nil {
		return "", fmt.Errorf("package: %w", err)
	}
	if err := space.Reserve(int64(len(data))); err != nil {
		return "", services.Wrap(services.ErrResourceExhausted, "package", "write manifest", "", err)
	}
	manifestPath := filepath.Join(engine.OutputDir(space), manifest.FileName)
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return "", fmt.Errorf("package: write manifest: %w", err)
	}
	return manifestPath, nil
}

func (o *Orchestrator) advance(j *Job, to Status) error {
	return j.Advance(to)
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, j *Job, err error) (*Job, error) {
	j.Fail(err)
	logger.Error("job failed",
		logging.String(logging.FieldEventType, "job_failure"),
		logging.String("failed_from", string(j.FailedFrom)),
		logging.String("error_kind", j.ErrorKind),
		logging.Error(err),
	)
	o.recordUpdate(ctx, logger, j)
	return j, err
}

func (o *Orchestrator) recordInsert(ctx context.Context, logger *slog.Logger, j *Job) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Insert(ctx, j.JournalRecord()); err != nil {
		logger.Warn("journal insert failed", logging.Error(err))
	}
}

func (o *Orchestrator) recordUpdate(ctx context.Context, logger *slog.Logger, j *Job) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Update(ctx, j.JournalRecord()); err != nil {
		logger.Warn("journal update failed", logging.Error(err))
	}
}
