package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"dashpress/internal/logging"
	"dashpress/internal/rendition"
	"dashpress/internal/scratch"
	"dashpress/internal/services"
)

// Driver executes a rendition plan sequentially against an Engine, enforcing
// the shared per-job wall-clock ceiling and the scratch byte ledger.
// Renditions run one at a time so peak scratch usage stays bounded; all
// invocations share one deadline. Any rendition failure fails the whole
// plan: a package referencing a subset of the planned renditions is never
// produced.
type Driver struct {
	engine         Engine
	segmentSeconds int
	timeout        time.Duration
	logger         *slog.Logger
}

// NewDriver constructs a driver.
func NewDriver(eng Engine, segmentSeconds int, timeout time.Duration, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Driver{engine: eng, segmentSeconds: segmentSeconds, timeout: timeout, logger: logger}
}

// OutputDir returns the directory inside scratch that encoded artifacts land in.
func OutputDir(space *scratch.Space) string {
	return space.Join("encoded")
}

// Encode runs every rendition in the plan and returns one Result per Spec,
// in plan order.
func (d *Driver) Encode(ctx context.Context, inputPath string, plan []rendition.Spec, space *scratch.Space) ([]Result, error) {
	if len(plan) == 0 {
		return nil, services.Wrap(services.ErrValidation, "transcode", "encode", "empty rendition plan", nil)
	}

	outputDir := OutputDir(space)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrResourceExhausted, "transcode", "encode", "create output directory", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	results := make([]Result, 0, len(plan))
	for _, spec := range plan {
		started := time.Now()
		d.logger.Info("encoding rendition",
			logging.String("rendition", spec.Label()),
			logging.String("rendition_id", spec.ID),
			logging.Int("video_kbps", spec.VideoBitrateKbps),
			logging.Int("audio_kbps", spec.AudioBitrateKbps),
		)

		result, err := d.engine.Encode(ctx, inputPath, outputDir, spec, d.segmentSeconds)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, services.Wrap(services.ErrTranscodeTimeout, "transcode", "rendition "+spec.ID,
					fmt.Sprintf("wall-clock budget %s exhausted", d.timeout), err)
			}
			return nil, services.Wrap(services.ErrEngine, "transcode", "rendition "+spec.ID, "", err)
		}

		if err := space.Reserve(result.TotalBytes()); err != nil {
			return nil, services.Wrap(services.ErrResourceExhausted, "transcode", "rendition "+spec.ID, "", err)
		}

		d.logger.Info("rendition encoded",
			logging.String("rendition", spec.Label()),
			logging.Int("video_segments", len(result.Video.SegmentPaths)),
			logging.Int("audio_segments", len(result.Audio.SegmentPaths)),
			logging.Float64("duration_seconds", result.DurationSeconds),
			logging.Duration("elapsed", time.Since(started)),
		)
		results = append(results, result)
	}

	return results, nil
}
