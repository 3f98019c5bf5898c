package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/YatinSharma37/Anuvadika/internal/services"
)

// Format identifies a subtitle serialization.
type Format string

const (
	FormatVTT Format = "vtt"
	FormatSRT Format = "srt"
)

const (
	// DefaultMaxLineWidth matches the line width used for burned-in captions.
	DefaultMaxLineWidth = 80
	// DefaultMaxLinesPerCue is the cue height ceiling before a segment is split.
	DefaultMaxLinesPerCue = 2
)

// ParseFormat maps a format tag (optionally dotted, any case) to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")) {
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "srt", "subrip":
		return FormatSRT, nil
	}
	return "", services.Wrap(services.ErrUnsupportedFormat, "format", "parse format", fmt.Sprintf("unsupported subtitle format %q", value), nil)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) valid() bool {
	return f == FormatVTT || f == FormatSRT
}

// Segment is a time-bounded chunk of recognized speech, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Cue is a timestamped, wrapped subtitle unit.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// Text joins the cue lines with single spaces.
func (c Cue) Text() string {
	return strings.Join(c.Lines, " ")
}

// Document is an ordered cue list bound to a serialization.
type Document struct {
	Format Format
	Cues   []Cue
}

// Options control cue layout.
type Options struct {
	MaxLineWidth int
	// MaxLinesPerCue bounds cue height; segments needing more lines are split
	// into consecutive cues. Zero or negative keeps one cue per segment.
	MaxLinesPerCue int
}

// DefaultOptions returns the layout used when nothing is configured.
func DefaultOptions() Options {
	return Options{MaxLineWidth: DefaultMaxLineWidth, MaxLinesPerCue: DefaultMaxLinesPerCue}
}
