package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dashpress/internal/logging"
	"dashpress/internal/scratch"
)

func newScratchCommand(ctx *commandContext) *cobra.Command {
	scratchCmd := &cobra.Command{
		Use:   "scratch",
		Short: "Scratch workspace utilities",
	}
	scratchCmd.AddCommand(newScratchCleanCommand(ctx))
	return scratchCmd
}

func newScratchCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale job scratch directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg.Logging.Format, cfg.Logging.Level, cfg.Paths.LogDir)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			result := scratch.CleanStale(cmd.Context(), cfg.Paths.ScratchDir, maxAge, logger)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d stale director%s\n", len(result.Removed), pluralY(len(result.Removed)))
			for _, cleanupErr := range result.Errors {
				fmt.Fprintf(out, "Failed to remove %s: %v\n", cleanupErr.Path, cleanupErr.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d director%s could not be removed", len(result.Errors), pluralY(len(result.Errors)))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Minimum age before a scratch directory is considered stale")
	return cmd
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
