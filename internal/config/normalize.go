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
	c.normalizeInference()
	c.normalizeSubtitles()
	c.normalizeSource()
	c.normalizeMedia()
	c.normalizeStorage()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		c.Paths.LibraryDir = defaultLibraryDir
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeInference() {
	c.Inference.Engine = strings.ToLower(strings.TrimSpace(c.Inference.Engine))
	if c.Inference.Engine == "" {
		c.Inference.Engine = defaultInferenceEngine
	}
	c.Inference.Binary = strings.TrimSpace(c.Inference.Binary)
	if c.Inference.Binary == "" {
		if c.Inference.Engine == engineWhisperX {
			c.Inference.Binary = defaultWhisperXBinary
		} else {
			c.Inference.Binary = defaultWhisperBinary
		}
	}
	if value, ok := os.LookupEnv(inferenceModelEnv); ok && strings.TrimSpace(value) != "" {
		c.Inference.Model = value
	}
	c.Inference.Model = strings.ToLower(strings.TrimSpace(c.Inference.Model))
	if c.Inference.Model == "" {
		c.Inference.Model = defaultInferenceModel
	}
	c.Inference.Device = strings.ToLower(strings.TrimSpace(c.Inference.Device))
	if c.Inference.Device == "" || (c.Inference.CUDAEnabled && c.Inference.Device == defaultInferenceDevice) {
		if c.Inference.CUDAEnabled {
			c.Inference.Device = "cuda"
		} else {
			c.Inference.Device = defaultInferenceDevice
		}
	}
	c.Inference.ComputeType = strings.ToLower(strings.TrimSpace(c.Inference.ComputeType))
	if c.Inference.ComputeType == "" {
		if c.Inference.CUDAEnabled {
			c.Inference.ComputeType = defaultComputeTypeCUDA
		} else {
			c.Inference.ComputeType = defaultComputeTypeCPU
		}
	}
	if c.Inference.BestOf == 0 {
		c.Inference.BestOf = defaultBestOf
	}
	if c.Inference.BeamSize == 0 {
		c.Inference.BeamSize = defaultBeamSize
	}
	c.Inference.HFToken = strings.TrimSpace(c.Inference.HFToken)
	if c.Inference.HFToken == "" {
		if value, ok := os.LookupEnv(huggingFaceTokenEnv); ok {
			c.Inference.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.BurnStyle = strings.TrimSpace(c.Subtitles.BurnStyle)
	if c.Subtitles.BurnStyle == "" {
		c.Subtitles.BurnStyle = defaultBurnStyle
	}
}

func (c *Config) normalizeSource() {
	c.Source.YTDLPBinary = strings.TrimSpace(c.Source.YTDLPBinary)
	if c.Source.YTDLPBinary == "" {
		c.Source.YTDLPBinary = defaultYTDLPBinary
	}
	c.Source.Format = strings.TrimSpace(c.Source.Format)
	if c.Source.Format == "" {
		c.Source.Format = defaultYTDLPFormat
	}
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeStorage() {
	if c.Storage.S3.Bucket == "" {
		if value, ok := os.LookupEnv(s3BucketEnv); ok {
			c.Storage.S3.Bucket = value
		}
	}
	c.Storage.S3.Bucket = strings.TrimSpace(c.Storage.S3.Bucket)
	c.Storage.S3.Region = strings.TrimSpace(c.Storage.S3.Region)
	c.Storage.S3.Endpoint = strings.TrimSpace(c.Storage.S3.Endpoint)
	c.Storage.S3.Prefix = strings.Trim(strings.TrimSpace(c.Storage.S3.Prefix), "/")
	c.Storage.S3.AccessKeyID = strings.TrimSpace(c.Storage.S3.AccessKeyID)
	c.Storage.S3.SecretAccessKey = strings.TrimSpace(c.Storage.S3.SecretAccessKey)
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(ntfyTopicEnv); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
