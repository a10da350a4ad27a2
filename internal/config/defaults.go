package config

const (
	defaultScratchDir        = "~/.local/share/dashpress/scratch"
	defaultLogDir            = "~/.local/share/dashpress/logs"
	defaultJournalPath       = "~/.local/share/dashpress/journal.db"
	defaultOutputPrefix      = "dash"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultSegmentSeconds    = 4
	defaultJobTimeoutSeconds = 900
	defaultScratchBudgetMiB  = 8192
	defaultDurationTolerance = 1.0
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir:  defaultScratchDir,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
		},
		Storage: Storage{
			UseSSL:       true,
			OutputPrefix: defaultOutputPrefix,
		},
		Transcode: Transcode{
			FFmpeg:                   defaultFFmpegBinary,
			FFprobe:                  defaultFFprobeBinary,
			SegmentSeconds:           defaultSegmentSeconds,
			JobTimeoutSeconds:        defaultJobTimeoutSeconds,
			ScratchBudgetMiB:         defaultScratchBudgetMiB,
			DurationToleranceSeconds: defaultDurationTolerance,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
