package modelcache

import (
	"context"
	"fmt"
	"strings"

	"github.com/YatinSharma37/Anuvadika/internal/services"
	"github.com/YatinSharma37/Anuvadika/internal/subtitles"
)

// Size names a whisper model checkpoint.
type Size string

const (
	SizeTiny     Size = "tiny"
	SizeTinyEN   Size = "tiny.en"
	SizeBase     Size = "base"
	SizeBaseEN   Size = "base.en"
	SizeSmall    Size = "small"
	SizeSmallEN  Size = "small.en"
	SizeMedium   Size = "medium"
	SizeMediumEN Size = "medium.en"
	SizeLarge    Size = "large"
	SizeLargeV2  Size = "large-v2"
	SizeLargeV3  Size = "large-v3"
)

var sizes = []Size{
	SizeTiny, SizeTinyEN, SizeBase, SizeBaseEN, SizeSmall, SizeSmallEN,
	SizeMedium, SizeMediumEN, SizeLarge, SizeLargeV2, SizeLargeV3,
}

// Sizes lists every known model size from smallest to largest.
func Sizes() []Size {
	return append([]Size(nil), sizes...)
}

// ParseSize validates a model size name.
func ParseSize(value string) (Size, error) {
	candidate := Size(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range sizes {
		if s == candidate {
			return s, nil
		}
	}
	return "", services.Wrap(services.ErrConfiguration, "", "parse model size", fmt.Sprintf("unknown model size %q", value), nil)
}

// Multilingual reports whether the checkpoint handles languages other than
// English. Only multilingual models can translate.
func (s Size) Multilingual() bool {
	return !strings.HasSuffix(string(s), ".en")
}

func (s Size) String() string {
	return string(s)
}

// Task selects between same-language transcription and translation to English.
type Task string

const (
	TaskTranscribe Task = "transcribe"
	TaskTranslate  Task = "translate"
)

// ParseTask validates a task name. Empty input means transcribe.
func ParseTask(value string) (Task, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "transcribe":
		return TaskTranscribe, nil
	case "translate":
		return TaskTranslate, nil
	}
	return "", services.Wrap(services.ErrConfiguration, "", "parse task", fmt.Sprintf("unknown task %q (want transcribe or translate)", value), nil)
}

// Options tune a single inference call.
type Options struct {
	Task     Task
	Language string // source language hint; empty lets the model detect it
	WorkDir  string // scratch directory for engine output
}

// Result is the output of one inference call. Language is the detected
// source language even when Task is translate.
type Result struct {
	Text     string
	Segments []subtitles.Segment
	Language string
}

// Model is a loaded recognizer.
type Model interface {
	Size() Size
	Multilingual() bool
	Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error)
	Close() error
}

// Loader materializes a model of the requested size.
type Loader interface {
	Load(ctx context.Context, size Size) (Model, error)
}
