package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
	StateDir   string `toml:"state_dir"`
}

// Inference contains configuration for the speech recognition backend.
type Inference struct {
	Engine        string  `toml:"engine"`
	Binary        string  `toml:"binary"`
	Model         string  `toml:"model"`
	Device        string  `toml:"device"`
	ComputeType   string  `toml:"compute_type"`
	CUDAEnabled   bool    `toml:"cuda_enabled"`
	BestOf        int     `toml:"best_of"`
	BeamSize      int     `toml:"beam_size"`
	Temperature   float64 `toml:"temperature"`
	HostExclusive bool    `toml:"host_exclusive"`
	HFToken       string  `toml:"hf_token"`
}

// Subtitles contains configuration for cue layout and burn-in.
type Subtitles struct {
	MaxLineWidth   int    `toml:"max_line_width"`
	MaxLinesPerCue int    `toml:"max_lines_per_cue"`
	BurnStyle      string `toml:"burn_style"`
}

// Source contains configuration for acquiring remote videos.
type Source struct {
	YTDLPBinary string `toml:"yt_dlp_binary"`
	Format      string `toml:"format"`
}

// Media contains the ffmpeg toolchain binaries.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Workflow contains per-stage timeouts (seconds) and scratch handling.
type Workflow struct {
	AcquireTimeout int  `toml:"acquire_timeout"`
	ExtractTimeout int  `toml:"extract_timeout"`
	InferTimeout   int  `toml:"infer_timeout"`
	FormatTimeout  int  `toml:"format_timeout"`
	MuxTimeout     int  `toml:"mux_timeout"`
	PackageTimeout int  `toml:"package_timeout"`
	KeepScratch    bool `toml:"keep_scratch"`
}

// S3 contains configuration for publishing archives to S3-compatible storage.
type S3 struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Prefix       string `toml:"prefix"`
	Endpoint     string `toml:"endpoint"`
	UsePathStyle bool   `toml:"use_path_style"`
	// Static credentials; when empty the default AWS provider chain is used.
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// Storage groups remote artifact destinations.
type Storage struct {
	S3 S3 `toml:"s3"`
}

// Notifications contains configuration for run outcome notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Anuvadika.
//
// Configuration sections by subsystem:
//   - Paths: scratch, library, log and state directories
//   - Inference: whisper engine, model and decoding knobs
//   - Subtitles: cue wrapping and burn-in style
//   - Source: yt-dlp settings for remote videos
//   - Media: ffmpeg/ffprobe binaries
//   - Workflow: per-stage timeouts
//   - Storage: optional S3 publication
//   - Notifications: optional ntfy topic for run outcomes
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Inference     Inference     `toml:"inference"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Source        Source        `toml:"source"`
	Media         Media         `toml:"media"`
	Workflow      Workflow      `toml:"workflow"`
	Storage       Storage       `toml:"storage"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LibraryDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RunStorePath returns the SQLite database holding run history.
func (c *Config) RunStorePath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// InferenceLockPath returns the host-wide lock held while a model is loaded.
func (c *Config) InferenceLockPath() string {
	return filepath.Join(c.Paths.StateDir, defaultInferenceLockFile)
}

// RunnerLockPath returns the lock shared by live run processes. Holding it
// exclusively proves no other process is mid-run.
func (c *Config) RunnerLockPath() string {
	return filepath.Join(c.Paths.StateDir, defaultRunnerLockFile)
}

// StageTimeout returns the configured timeout for a pipeline stage. Unknown
// stages and non-positive values yield zero, meaning no deadline.
func (c *Config) StageTimeout(stage string) time.Duration {
	var seconds int
	switch stage {
	case "acquire":
		seconds = c.Workflow.AcquireTimeout
	case "extract":
		seconds = c.Workflow.ExtractTimeout
	case "infer":
		seconds = c.Workflow.InferTimeout
	case "format":
		seconds = c.Workflow.FormatTimeout
	case "mux":
		seconds = c.Workflow.MuxTimeout
	case "package":
		seconds = c.Workflow.PackageTimeout
	}
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// NotificationsEnabled reports whether run outcomes are pushed to ntfy.
func (c *Config) NotificationsEnabled() bool {
	return strings.TrimSpace(c.Notifications.NtfyTopic) != ""
}

// S3Enabled reports whether archives should be published.
func (c *Config) S3Enabled() bool {
	return strings.TrimSpace(c.Storage.S3.Bucket) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
