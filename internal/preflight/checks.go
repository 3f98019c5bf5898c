package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"github.com/YatinSharma37/Anuvadika/internal/config"
	"github.com/YatinSharma37/Anuvadika/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckInferenceLock reports whether the host-wide inference lock is free.
// The lock is released immediately; this is a snapshot, not a reservation.
func CheckInferenceLock(path string) Result {
	const name = "Inference lock"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !locked {
		return Result{Name: name, Detail: fmt.Sprintf("%s (held by another process)", path)}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (free)", path)}
}

// Requirements lists the external tools the configured pipeline shells out to.
func Requirements(cfg *config.Config) []deps.Requirement {
	reqs := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Media.FFmpegBinary,
			Description: "Required for audio extraction and subtitle burn-in",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     deps.ResolveFFprobe(cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary),
			Description: "Required for media inspection",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.Source.YTDLPBinary,
			Description: "Required for YouTube sources",
			Optional:    true,
			VersionArgs: []string{"--version"},
		},
	}
	if cfg.Inference.Engine == "whisperx" {
		reqs = append(reqs, deps.Requirement{
			Name:        "uvx",
			Command:     cfg.Inference.Binary,
			Description: "Required for WhisperX-driven transcription",
			VersionArgs: []string{"--version"},
		})
	} else {
		reqs = append(reqs, deps.Requirement{
			Name:        "Whisper",
			Command:     cfg.Inference.Binary,
			Description: "Required for transcription",
		})
	}
	return reqs
}

// CheckSystemDeps evaluates the requirements for the given config.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, Requirements(cfg))
}
