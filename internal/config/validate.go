package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAnswer(); err != nil {
		return err
	}
	if err := c.validateRecording(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAnswer() error {
	if c.Answer.SimilarityThreshold < 0 || c.Answer.SimilarityThreshold > 1 {
		return errors.New("answer.similarity_threshold must be between 0 and 1")
	}
	if c.Answer.MaxAttempts < 1 {
		return errors.New("answer.max_attempts must be at least 1")
	}
	if c.Answer.RequestTimeout <= 0 {
		return errors.New("answer.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateRecording() error {
	if c.Recording.MaxCaptureMiB <= 0 {
		return errors.New("recording.max_capture_mib must be positive")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if err := ensurePositiveMap(map[string]int{
		"transcode.audio_bitrate_kbps": c.Transcode.AudioBitrateKbps,
		"transcode.encode_timeout":     c.Transcode.EncodeTimeout,
	}); err != nil {
		return err
	}
	if c.Transcode.ScratchMinFreeMiB < 0 {
		return errors.New("transcode.scratch_min_free_mib must not be negative")
	}
	return nil
}

func (c *Config) validateMerge() error {
	return ensurePositiveMap(map[string]int{
		"merge.fetch_concurrency": c.Merge.FetchConcurrency,
		"merge.fetch_timeout":     c.Merge.FetchTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
