package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/media/ffprobe"
	"github.com/YatinSharma37/Anuvadika/internal/services"
)

// Sample layout expected by the recognizer.
const (
	SampleRate = 16000
	Channels   = 1
	Codec      = "pcm_s16le"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// Info describes the extracted audio.
type Info struct {
	Path            string
	DurationSeconds float64
	Stream          Selection
}

// Extractor pulls a mono PCM track out of a media file.
type Extractor struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
	run     commandRunner
	probe   ffprobe.Runner
}

// NewExtractor builds an extractor. Empty binaries resolve from PATH.
func NewExtractor(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Extractor {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Extractor{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		logger:  logging.NewComponentLogger(logger, "audio"),
		run:     defaultCommandRunner,
	}
}

// WithCommandRunner sets a custom ffmpeg runner (for testing).
func (e *Extractor) WithCommandRunner(runner commandRunner) {
	if e != nil && runner != nil {
		e.run = runner
	}
}

// WithProbeRunner sets a custom ffprobe runner (for testing).
func (e *Extractor) WithProbeRunner(runner ffprobe.Runner) {
	if e != nil && runner != nil {
		e.probe = runner
	}
}

// Extract writes the best audio stream of mediaPath to dest as 16 kHz mono
// WAV. languageHint steers stream selection for multi-track containers.
func (e *Extractor) Extract(ctx context.Context, mediaPath, dest, languageHint string) (Info, error) {
	if strings.TrimSpace(mediaPath) == "" || strings.TrimSpace(dest) == "" {
		return Info{}, services.Wrap(services.ErrMediaDecode, "extract", "extract audio", "media and destination paths required", nil)
	}
	probe, err := ffprobe.InspectWith(ctx, e.probe, e.ffprobe, mediaPath)
	if err != nil {
		return Info{}, err
	}
	if !probe.HasAudio() {
		return Info{}, services.Wrap(services.ErrMediaDecode, "extract", "extract audio",
			fmt.Sprintf("%s has no audio stream", filepath.Base(mediaPath)), nil)
	}
	selection := Select(probe.Streams, languageHint)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Info{}, services.Wrap(services.ErrMediaDecode, "extract", "extract audio", "create output directory", err)
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", mediaPath,
		"-map", "0:a:" + strconv.Itoa(selection.Ordinal),
		"-vn", "-sn", "-dn",
		"-ac", strconv.Itoa(Channels),
		"-ar", strconv.Itoa(SampleRate),
		"-c:a", Codec,
		dest,
	}
	e.logger.Debug("extracting audio",
		logging.String("source", mediaPath),
		logging.String("stream", selection.Label()),
		logging.Int("audio_streams", probe.AudioStreamCount()),
	)
	if err := e.run(ctx, e.ffmpeg, args...); err != nil {
		_ = os.Remove(dest)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Info{}, services.Wrap(services.ErrMediaDecode, "extract", "ffmpeg", "interrupted",
				services.Wrap(services.ErrTimeout, "", "", "", ctxErr))
		}
		return Info{}, services.Wrap(services.ErrMediaDecode, "extract", "ffmpeg", "decode audio", err)
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		if err == nil {
			err = fmt.Errorf("empty output %s", dest)
		}
		return Info{}, services.Wrap(services.ErrMediaDecode, "extract", "ffmpeg", "validate output", err)
	}

	duration := probe.DurationSeconds()
	if math.IsNaN(duration) {
		duration = 0
	}
	return Info{Path: dest, DurationSeconds: duration, Stream: selection}, nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
