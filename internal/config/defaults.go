package config

const (
	defaultDownloadDir           = "~/.local/share/clipset/datasets"
	defaultStateDir              = "~/.local/share/clipset/state"
	defaultLogDir                = "~/.local/share/clipset/logs"
	defaultArchiveExtension      = ".avi"
	defaultMinPathSegments       = 3
	defaultLabelSeparator        = "_"
	defaultLabelTokenFromEnd     = 3
	defaultLabelSource           = LabelSourceToken
	defaultRequestTimeoutSeconds = 60
	defaultNumClasses            = 10
	defaultFilesPerClass         = 0
	defaultSeed                  = 1
	defaultNFrames               = 10
	defaultFrameHeight           = 224
	defaultFrameWidth            = 224
	defaultFrameStep             = 15
	defaultBatchSize             = 2
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Label sources understood by the archive labeler.
const (
	LabelSourceToken     = "token"
	LabelSourceParentDir = "parent_dir"
)

// DefaultSplits returns the train/val/test allocation used when none is configured.
func DefaultSplits() []Split {
	return []Split{
		{Name: "train", Count: 30},
		{Name: "val", Count: 10},
		{Name: "test", Count: 10},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		Archive: Archive{
			Extension:             defaultArchiveExtension,
			MinPathSegments:       defaultMinPathSegments,
			LabelSeparator:        defaultLabelSeparator,
			LabelTokenFromEnd:     defaultLabelTokenFromEnd,
			LabelSource:           defaultLabelSource,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Dataset: Dataset{
			NumClasses:    defaultNumClasses,
			FilesPerClass: defaultFilesPerClass,
			Seed:          defaultSeed,
			Splits:        DefaultSplits(),
		},
		Sampler: Sampler{
			NFrames:   defaultNFrames,
			Height:    defaultFrameHeight,
			Width:     defaultFrameWidth,
			FrameStep: defaultFrameStep,
			BatchSize: defaultBatchSize,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
