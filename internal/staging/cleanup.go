package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
)

// DirInfo contains metadata about a scratch directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// Result reports what a cleanup pass removed.
type Result struct {
	Removed        []DirInfo
	Errors         []CleanupError
	ReclaimedBytes int64
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// ListDirectories returns the scratch directories under stagingDir, oldest
// first. A missing staging root yields no entries.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(stagingDir, entry.Name())
		size, _ := dirSize(path)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].ModTime.Before(dirs[j].ModTime) })
	return dirs, nil
}

// Candidates selects the directories a cleanup pass would remove: those not
// named after an active run and last modified before now-maxAge. A zero
// maxAge selects every inactive directory.
func Candidates(dirs []DirInfo, active map[string]struct{}, maxAge time.Duration, now time.Time) []DirInfo {
	cutoff := now.Add(-maxAge)
	var out []DirInfo
	for _, dir := range dirs {
		if _, ok := active[dir.Name]; ok {
			continue
		}
		if maxAge > 0 && !dir.ModTime.Before(cutoff) {
			continue
		}
		out = append(out, dir)
	}
	return out
}

// Remove deletes the given directories, stopping early if ctx is cancelled.
func Remove(ctx context.Context, dirs []DirInfo, logger *slog.Logger) Result {
	if logger == nil {
		logger = logging.NewNop()
	}
	var result Result
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Error: err})
			return result
		}
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Error: err})
			logger.Warn("failed to remove scratch directory",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir)
		result.ReclaimedBytes += dir.Size
		logger.Info("removed scratch directory",
			logging.String("path", dir.Path),
			logging.Duration("age", time.Since(dir.ModTime)),
			logging.Int64("bytes", dir.Size),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return result
}

// CleanStale lists, selects and removes inactive scratch directories older
// than maxAge in one pass.
func CleanStale(ctx context.Context, stagingDir string, active map[string]struct{}, maxAge time.Duration, logger *slog.Logger) (Result, error) {
	dirs, err := ListDirectories(stagingDir)
	if err != nil {
		return Result{}, err
	}
	return Remove(ctx, Candidates(dirs, active, maxAge, time.Now()), logger), nil
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
