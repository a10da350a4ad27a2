package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dashpress/internal/engine"
	"dashpress/internal/event"
	"dashpress/internal/job"
	"dashpress/internal/journal"
	"dashpress/internal/logging"
	"dashpress/internal/objectstore"
	"dashpress/internal/scratch"
)

// staleScratchAge bounds how old an abandoned scratch directory must be
// before the preflight sweep removes it.
const staleScratchAge = 24 * time.Hour

func newRunCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [event-file]",
		Short: "Process one storage trigger event",
		Long: "Reads a storage notification (JSON) from the given file or stdin,\n" +
			"transcodes the source into a DASH rendition ladder, and publishes the\n" +
			"package to the configured output location.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			payload, err := readEventPayload(cmd, args)
			if err != nil {
				return err
			}
			rec, err := event.Parse(payload)
			if err != nil {
				return fmt.Errorf("parse event: %w", err)
			}

			logger, err := logging.NewFromConfig(cfg.Logging.Format, cfg.Logging.Level, cfg.Paths.LogDir)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			store, err := objectstore.NewS3(cfg.Storage)
			if err != nil {
				return fmt.Errorf("connect object store: %w", err)
			}

			hist, err := journal.Open(cfg.Paths.JournalPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer hist.Close()

			// Sweep leftovers from crashed invocations before taking space.
			scratch.CleanStale(cmd.Context(), cfg.Paths.ScratchDir, staleScratchAge, logger)

			eng := engine.NewFFmpeg(engine.WithBinary(cfg.Transcode.FFmpeg))
			orch := job.NewOrchestrator(cfg, store, eng, logger, job.WithJournal(hist))

			j, err := orch.Run(cmd.Context(), rec)
			if err != nil {
				return fmt.Errorf("job %s failed from %s (%s): %w", j.ID, j.FailedFrom, j.ErrorKind, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %s completed: %d renditions, %d objects published to %s/%s\n",
				j.ID, j.Renditions, len(j.PublishedKeys), cfg.Storage.OutputBucket, j.DestinationPrefix)
			return nil
		},
	}
	return cmd
}

func readEventPayload(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read event file: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read event from stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no event payload provided (pass a file or pipe JSON to stdin)")
	}
	return data, nil
}
