package config

const (
	defaultConfigPath         = "~/.config/vodscan/config.toml"
	defaultOutputDir          = "~/vodscan"
	defaultTemplatesDir       = "~/.config/vodscan/templates"
	defaultLogDir             = "~/.local/share/vodscan/logs"
	defaultMaxThreads         = 2
	defaultCheckpointInterval = 16
	defaultPollInterval       = 5
	defaultReadyTimeout       = 120
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultDecodeTimeout      = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:    defaultOutputDir,
			TemplatesDir: defaultTemplatesDir,
			LogDir:       defaultLogDir,
		},
		Scan: Scan{
			MaxThreads:         defaultMaxThreads,
			QueueDepth:         defaultQueueDepth(defaultMaxThreads),
			CheckpointInterval: defaultCheckpointInterval,
			CleanOutput:        true,
			DeleteChunks:       false,
			PollInterval:       defaultPollInterval,
			ReadyTimeout:       defaultReadyTimeout,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			DecodeTimeout: defaultDecodeTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// defaultQueueDepth keeps every worker busy with one chunk queued behind it.
func defaultQueueDepth(threads int) int {
	return threads * 2
}
