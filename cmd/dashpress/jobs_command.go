package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dashpress/internal/journal"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent jobs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			hist, err := journal.Open(cfg.Paths.JournalPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer hist.Close()

			records, err := hist.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			if !isTerminal(out) {
				for _, rec := range records {
					fmt.Fprintf(out, "%s\t%s/%s\t%s\t%d\t%d\t%s\t%s\n",
						shortID(rec.ID), rec.SourceBucket, rec.SourceKey, rec.Status,
						rec.Renditions, rec.PublishedObjects, jobError(rec), relativeTime(rec.UpdatedAt))
				}
				return nil
			}
			fmt.Fprintln(out, renderJobsTable(records))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to display")
	return cmd
}

// renderJobsTable draws the journal listing with count columns right-aligned.
func renderJobsTable(records []journal.Record) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Source", "Status", "Renditions", "Objects", "Error", "Updated"})
	for _, rec := range records {
		tw.AppendRow(table.Row{
			shortID(rec.ID),
			rec.SourceBucket + "/" + rec.SourceKey,
			rec.Status,
			rec.Renditions,
			rec.PublishedObjects,
			jobError(rec),
			relativeTime(rec.UpdatedAt),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Renditions", Align: text.AlignRight},
		{Name: "Objects", Align: text.AlignRight},
	})
	return tw.Render()
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func jobError(rec journal.Record) string {
	if rec.ErrorKind == "" {
		return ""
	}
	if rec.FailedFrom != "" {
		return fmt.Sprintf("%s (from %s)", rec.ErrorKind, rec.FailedFrom)
	}
	return rec.ErrorKind
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}
