package config

const (
	defaultDataDir             = "~/.local/share/clipgate/data"
	defaultScratchDir          = "~/.local/share/clipgate/scratch"
	defaultArtifactDir         = "~/.local/share/clipgate/artifacts"
	defaultLogDir              = "~/.local/share/clipgate/logs"
	defaultAPIBind             = "127.0.0.1:7623"
	defaultBaseURL             = "http://127.0.0.1:7623"
	defaultSimilarityThreshold = 0.6
	defaultMaxAttempts         = 2
	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultAnswerTimeout       = 30
	defaultVideoDevice         = "/dev/video0"
	defaultAudioDevice         = "default"
	defaultMaxCaptureMiB       = 512
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultAudioBitrateKbps    = 192
	defaultScratchMinFreeMiB   = 1024
	defaultEncodeTimeout       = 1800
	defaultFetchConcurrency    = 4
	defaultFetchTimeout        = 120
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			ScratchDir:  defaultScratchDir,
			ArtifactDir: defaultArtifactDir,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
			BaseURL:     defaultBaseURL,
		},
		Answer: Answer{
			SimilarityThreshold: defaultSimilarityThreshold,
			MaxAttempts:         defaultMaxAttempts,
			EmbeddingModel:      defaultEmbeddingModel,
			RequestTimeout:      defaultAnswerTimeout,
			GateUploads:         true,
		},
		Recording: Recording{
			VideoDevice:   defaultVideoDevice,
			AudioDevice:   defaultAudioDevice,
			MaxCaptureMiB: defaultMaxCaptureMiB,
			HotplugWatch:  true,
		},
		Transcode: Transcode{
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			AudioBitrateKbps:  defaultAudioBitrateKbps,
			ScratchMinFreeMiB: defaultScratchMinFreeMiB,
			EncodeTimeout:     defaultEncodeTimeout,
		},
		Merge: Merge{
			FetchConcurrency: defaultFetchConcurrency,
			FetchTimeout:     defaultFetchTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
