package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/YatinSharma37/Anuvadika/internal/language"
	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/services"
)

// DefaultBurnStyle is the basic overlay: white Arial text with a thin black outline.
const DefaultBurnStyle = "FontName=Arial,FontSize=24,PrimaryColour=&HFFFFFF&,OutlineColour=&H000000&,Outline=1"

type commandRunner func(ctx context.Context, name string, args ...string) error

// BurnRequest describes the inputs for burning subtitles into a video.
type BurnRequest struct {
	VideoPath    string // Source video
	SubtitlePath string // SRT file to overlay
	OutputPath   string // Destination video; replaced atomically
	Style        string // ASS force_style override; DefaultBurnStyle when empty
	Language     string // Optional audio language tag written as container metadata
}

// Muxer overlays subtitles onto video frames using ffmpeg's subtitles filter.
// The original audio track is copied untouched.
type Muxer struct {
	logger *slog.Logger
	ffmpeg string
	run    commandRunner
}

// NewMuxer constructs a subtitle muxer. An empty binary means "ffmpeg".
func NewMuxer(ffmpegBinary string, logger *slog.Logger) *Muxer {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Muxer{
		logger: logging.NewComponentLogger(logger, "muxer"),
		ffmpeg: ffmpegBinary,
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithCommandRunner(r commandRunner) {
	if m != nil && r != nil {
		m.run = r
	}
}

// Burn renders the subtitle file into the video. The operation is atomic: a
// temporary file is written next to the output and renamed on success.
func (m *Muxer) Burn(ctx context.Context, req BurnRequest) (string, error) {
	if m == nil {
		return "", services.Wrap(services.ErrMux, "mux", "burn", "muxer not initialized", nil)
	}
	if strings.TrimSpace(req.VideoPath) == "" || strings.TrimSpace(req.SubtitlePath) == "" || strings.TrimSpace(req.OutputPath) == "" {
		return "", services.Wrap(services.ErrMux, "mux", "burn", "video, subtitle and output paths are required", nil)
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return "", services.Wrap(services.ErrMux, "mux", "burn", "source video not found", err)
	}
	if _, err := os.Stat(req.SubtitlePath); err != nil {
		return "", services.Wrap(services.ErrMux, "mux", "burn", "subtitle file not found", err)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", services.Wrap(services.ErrMux, "mux", "burn", "create output directory", err)
	}

	dir := filepath.Dir(req.OutputPath)
	ext := filepath.Ext(req.OutputPath)
	stem := strings.TrimSuffix(filepath.Base(req.OutputPath), ext)
	tmpPath := filepath.Join(dir, "."+stem+".partial"+ext)

	args := m.buildArgs(req, tmpPath)
	m.logger.Debug("executing ffmpeg burn-in",
		logging.String("video_path", req.VideoPath),
		logging.String("subtitle_path", req.SubtitlePath),
		logging.String("output_path", req.OutputPath),
	)

	if err := m.run(ctx, m.ffmpeg, args...); err != nil {
		_ = os.Remove(tmpPath)
		if ctx.Err() != nil {
			return "", services.Wrap(services.ErrMux, "mux", "burn", "ffmpeg interrupted", services.Wrap(services.ErrTimeout, "", "", "", ctx.Err()))
		}
		return "", services.Wrap(services.ErrMux, "mux", "burn", "ffmpeg failed", err)
	}
	if info, err := os.Stat(tmpPath); err != nil || info.Size() == 0 {
		_ = os.Remove(tmpPath)
		if err == nil {
			err = fmt.Errorf("empty output")
		}
		return "", services.Wrap(services.ErrMux, "mux", "burn", "ffmpeg did not produce output", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrMux, "mux", "burn", "finalize output", err)
	}

	m.logger.Info("subtitles burned into video",
		logging.String(logging.FieldEventType, "subtitle_burn_complete"),
		logging.String("output_path", req.OutputPath),
	)
	return req.OutputPath, nil
}

func (m *Muxer) buildArgs(req BurnRequest, outputPath string) []string {
	style := strings.TrimSpace(req.Style)
	if style == "" {
		style = DefaultBurnStyle
	}
	filter := "subtitles=" + escapeFilterPath(req.SubtitlePath) + ":force_style='" + style + "'"

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", req.VideoPath,
		"-map", "0:v:0", "-map", "0:a?",
		"-vf", filter,
		"-c:a", "copy",
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		args = append(args, "-metadata:s:a:0", "language="+language.ToISO3(lang))
	}
	return append(args, outputPath)
}

// escapeFilterPath quotes a path for use as a filter option value. The option
// parser treats '\', ':' and '\'' specially; the filtergraph parser then needs
// the whole value single-quoted.
func escapeFilterPath(path string) string {
	optionLevel := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`).Replace(path)
	return "'" + strings.ReplaceAll(optionLevel, "'", `'\''`) + "'"
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, tail(strings.TrimSpace(string(output)), 2048))
	}
	return nil
}

func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
