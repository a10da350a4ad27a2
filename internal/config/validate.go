package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStorage() error {
	if strings.TrimSpace(c.Storage.OutputBucket) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/dashpress/config.toml"
		}
		return fmt.Errorf("storage.output_bucket is required. Edit %s (create with 'dashpress config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if strings.TrimSpace(c.Transcode.FFmpeg) == "" {
		return errors.New("transcode.ffmpeg must be set")
	}
	if strings.TrimSpace(c.Transcode.FFprobe) == "" {
		return errors.New("transcode.ffprobe must be set")
	}
	if c.Transcode.SegmentSeconds <= 0 {
		return errors.New("transcode.segment_seconds must be positive")
	}
	if c.Transcode.JobTimeoutSeconds <= 0 {
		return errors.New("transcode.job_timeout must be positive")
	}
	if c.Transcode.ScratchBudgetMiB <= 0 {
		return errors.New("transcode.scratch_budget_mib must be positive")
	}
	if c.Transcode.DurationToleranceSeconds < 0 {
		return errors.New("transcode.duration_tolerance_seconds must not be negative")
	}
	for _, height := range c.Transcode.LadderHeights {
		if height <= 0 {
			return fmt.Errorf("transcode.ladder_heights contains invalid height %d", height)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
