package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/services"
)

// DefaultFormat prefers a progressive mp4 so the muxer can copy audio as-is.
const DefaultFormat = "best[ext=mp4]/best"

// outputBase is the file name (without extension) yt-dlp writes to.
const outputBase = "source"

// Progress captures download progress output.
type Progress struct {
	Percent float64
	Message string
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(f *Fetcher) {
		if exec != nil {
			f.exec = exec
		}
	}
}

// Fetcher acquires media for a descriptor.
type Fetcher struct {
	binary string
	format string
	exec   Executor
	logger *slog.Logger
}

// NewFetcher constructs a fetcher. Empty binary and format use defaults.
func NewFetcher(ytdlpBinary, format string, logger *slog.Logger, opts ...Option) *Fetcher {
	if strings.TrimSpace(ytdlpBinary) == "" {
		ytdlpBinary = "yt-dlp"
	}
	if strings.TrimSpace(format) == "" {
		format = DefaultFormat
	}
	f := &Fetcher{
		binary: ytdlpBinary,
		format: format,
		exec:   commandExecutor{},
		logger: logging.NewComponentLogger(logger, "source"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns a local path for desc. Remote videos are downloaded into dir.
func (f *Fetcher) Fetch(ctx context.Context, desc Descriptor, dir string, progress func(Progress)) (string, error) {
	if !desc.Remote() {
		return f.useLocal(desc)
	}
	if strings.TrimSpace(dir) == "" {
		return "", services.Wrap(services.ErrSourceUnavailable, "acquire", "download", "destination directory required", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrSourceUnavailable, "acquire", "download", "create destination", err)
	}

	args := []string{
		"-f", f.format,
		"--newline",
		"--no-playlist",
		"--no-part",
		"-o", filepath.Join(dir, outputBase+".%(ext)s"),
		desc.URL,
	}
	f.logger.Info("download started",
		logging.String(logging.FieldEventType, "download_start"),
		logging.String("url", desc.URL),
	)

	var tail []string
	onOutput := func(line string) {
		if update, ok := parseProgress(line); ok {
			if progress != nil {
				progress(update)
			}
			return
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			tail = append(tail, trimmed)
			if len(tail) > 5 {
				tail = tail[1:]
			}
		}
	}
	if err := f.exec.Run(ctx, f.binary, args, onOutput); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", services.Wrap(services.ErrSourceUnavailable, "acquire", "download", "interrupted",
				services.Wrap(services.ErrTimeout, "", "", "", ctxErr))
		}
		detail := strings.Join(tail, "; ")
		return "", services.Wrap(services.ErrSourceUnavailable, "acquire", "download", detail, err)
	}

	path, err := findDownloaded(dir)
	if err != nil {
		return "", services.Wrap(services.ErrSourceUnavailable, "acquire", "download", "locate output", err)
	}
	return path, nil
}

func (f *Fetcher) useLocal(desc Descriptor) (string, error) {
	file, err := os.Open(desc.Path)
	if err != nil {
		return "", services.Wrap(services.ErrSourceUnavailable, "acquire", "open local file", desc.Path, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return "", services.Wrap(services.ErrSourceUnavailable, "acquire", "open local file", desc.Path, err)
	}
	if info.Size() == 0 {
		return "", services.Wrap(services.ErrSourceUnavailable, "acquire", "open local file", desc.Path+" is empty", nil)
	}
	return desc.Path, nil
}

func findDownloaded(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, outputBase+".*"))
	if err != nil {
		return "", err
	}
	var best string
	var bestSize int64 = -1
	for _, match := range matches {
		if strings.HasSuffix(match, ".part") || strings.HasSuffix(match, ".ytdl") {
			continue
		}
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Size() > bestSize {
			best, bestSize = match, info.Size()
		}
	}
	if best == "" || bestSize == 0 {
		return "", errors.New("yt-dlp produced no output file")
	}
	return best, nil
}

// parseProgress reads "[download]  42.0% of ~12.34MiB at 1.2MiB/s ETA 00:10".
func parseProgress(line string) (Progress, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[download]") {
		return Progress{}, false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "[download]"))
	fields := strings.Fields(payload)
	if len(fields) == 0 || !strings.HasSuffix(fields[0], "%") {
		return Progress{}, false
	}
	percent, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "%"), 64)
	if err != nil {
		return Progress{}, false
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return Progress{Percent: percent, Message: payload}, true
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if onOutput != nil {
				mu.Lock()
				onOutput(scanner.Text())
				mu.Unlock()
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
