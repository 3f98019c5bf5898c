package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownModels = map[string]struct{}{
	"tiny": {}, "tiny.en": {},
	"base": {}, "base.en": {},
	"small": {}, "small.en": {},
	"medium": {}, "medium.en": {},
	"large": {}, "large-v2": {}, "large-v3": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateInference(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) topic URL, got %q", topic)
	}
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateStorage() error {
	s3 := c.Storage.S3
	if (s3.AccessKeyID == "") != (s3.SecretAccessKey == "") {
		return errors.New("storage.s3.access_key_id and storage.s3.secret_access_key must be set together")
	}
	if s3.Endpoint != "" && !strings.HasPrefix(s3.Endpoint, "http://") && !strings.HasPrefix(s3.Endpoint, "https://") {
		return fmt.Errorf("storage.s3.endpoint must be an http(s) URL, got %q", s3.Endpoint)
	}
	return nil
}

func (c *Config) validateInference() error {
	switch c.Inference.Engine {
	case engineWhisper, engineWhisperX:
	default:
		return fmt.Errorf("inference.engine must be %q or %q, got %q", engineWhisper, engineWhisperX, c.Inference.Engine)
	}
	if _, ok := knownModels[c.Inference.Model]; !ok {
		return fmt.Errorf("inference.model %q is not a known whisper model size", c.Inference.Model)
	}
	if c.Inference.BestOf < 1 {
		return errors.New("inference.best_of must be at least 1")
	}
	if c.Inference.BeamSize < 1 {
		return errors.New("inference.beam_size must be at least 1")
	}
	if c.Inference.Temperature < 0 || c.Inference.Temperature > 1 {
		return errors.New("inference.temperature must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.MaxLineWidth < 1 {
		return errors.New("subtitles.max_line_width must be at least 1")
	}
	if c.Subtitles.MaxLinesPerCue < 0 {
		return errors.New("subtitles.max_lines_per_cue must be 0 (no splitting) or positive")
	}
	if strings.ContainsAny(c.Subtitles.BurnStyle, "'\n") {
		return errors.New("subtitles.burn_style must not contain quotes or newlines")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	timeouts := map[string]int{
		"workflow.acquire_timeout": c.Workflow.AcquireTimeout,
		"workflow.extract_timeout": c.Workflow.ExtractTimeout,
		"workflow.infer_timeout":   c.Workflow.InferTimeout,
		"workflow.format_timeout":  c.Workflow.FormatTimeout,
		"workflow.mux_timeout":     c.Workflow.MuxTimeout,
		"workflow.package_timeout": c.Workflow.PackageTimeout,
	}
	for key, value := range timeouts {
		if value < 0 {
			return fmt.Errorf("%s must be zero (no deadline) or positive", key)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}
