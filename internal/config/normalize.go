package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnswer()
	c.normalizeRecording()
	c.normalizeTranscode()
	c.normalizeMerge()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.ArtifactDir, err = expandPath(c.Paths.ArtifactDir); err != nil {
		return fmt.Errorf("paths.artifact_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.BaseURL = strings.TrimRight(strings.TrimSpace(c.Paths.BaseURL), "/")
	if c.Paths.BaseURL == "" {
		c.Paths.BaseURL = defaultBaseURL
	}
	return nil
}

func (c *Config) normalizeAnswer() {
	if c.Answer.EmbeddingAPIKey == "" {
		if value, ok := os.LookupEnv("CLIPGATE_EMBEDDING_API_KEY"); ok {
			c.Answer.EmbeddingAPIKey = strings.TrimSpace(value)
		}
	}
	c.Answer.EmbeddingBaseURL = strings.TrimRight(strings.TrimSpace(c.Answer.EmbeddingBaseURL), "/")
	c.Answer.EmbeddingModel = strings.TrimSpace(c.Answer.EmbeddingModel)
	if c.Answer.EmbeddingModel == "" {
		c.Answer.EmbeddingModel = defaultEmbeddingModel
	}
	if c.Answer.RequestTimeout <= 0 {
		c.Answer.RequestTimeout = defaultAnswerTimeout
	}
}

func (c *Config) normalizeRecording() {
	c.Recording.VideoDevice = strings.TrimSpace(c.Recording.VideoDevice)
	if c.Recording.VideoDevice == "" {
		c.Recording.VideoDevice = defaultVideoDevice
	}
	c.Recording.AudioDevice = strings.TrimSpace(c.Recording.AudioDevice)
	if c.Recording.AudioDevice == "" {
		c.Recording.AudioDevice = defaultAudioDevice
	}
	if c.Recording.MaxCaptureMiB <= 0 {
		c.Recording.MaxCaptureMiB = defaultMaxCaptureMiB
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Transcode.FFprobeBinary = strings.TrimSpace(c.Transcode.FFprobeBinary)
	if c.Transcode.FFprobeBinary == "" {
		c.Transcode.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Transcode.AudioBitrateKbps <= 0 {
		c.Transcode.AudioBitrateKbps = defaultAudioBitrateKbps
	}
	if c.Transcode.EncodeTimeout <= 0 {
		c.Transcode.EncodeTimeout = defaultEncodeTimeout
	}
}

func (c *Config) normalizeMerge() {
	if c.Merge.FetchConcurrency <= 0 {
		c.Merge.FetchConcurrency = defaultFetchConcurrency
	}
	if c.Merge.FetchTimeout <= 0 {
		c.Merge.FetchTimeout = defaultFetchTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
