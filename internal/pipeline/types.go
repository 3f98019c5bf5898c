package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/YatinSharma37/Anuvadika/internal/media/audio"
	"github.com/YatinSharma37/Anuvadika/internal/modelcache"
	"github.com/YatinSharma37/Anuvadika/internal/notifications"
	"github.com/YatinSharma37/Anuvadika/internal/packager"
	"github.com/YatinSharma37/Anuvadika/internal/runstore"
	"github.com/YatinSharma37/Anuvadika/internal/source"
	"github.com/YatinSharma37/Anuvadika/internal/subtitles"
)

// Stage names one step of a run.
type Stage string

const (
	StageAcquire Stage = "acquire"
	StageExtract Stage = "extract"
	StageInfer   Stage = "infer"
	StageFormat  Stage = "format"
	StageMux     Stage = "mux"
	StagePackage Stage = "package"
	// StageRun tags run-level events.
	StageRun Stage = "run"
)

// Stages lists the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageAcquire, StageExtract, StageInfer, StageFormat, StageMux, StagePackage}
}

func (s Stage) index() int {
	for i, st := range Stages() {
		if st == s {
			return i
		}
	}
	return -1
}

var stageStatus = map[Stage]runstore.Status{
	StageAcquire: runstore.StatusAcquiring,
	StageExtract: runstore.StatusExtracting,
	StageInfer:   runstore.StatusInferring,
	StageFormat:  runstore.StatusFormatting,
	StageMux:     runstore.StatusMuxing,
	StagePackage: runstore.StatusPackaging,
}

// Task re-exports the inference task for callers that only import pipeline.
type Task = modelcache.Task

const (
	TaskTranscribe = modelcache.TaskTranscribe
	TaskTranslate  = modelcache.TaskTranslate
)

// ParseTask validates a task name; empty means transcribe.
func ParseTask(value string) (Task, error) {
	return modelcache.ParseTask(value)
}

// Request describes one run.
type Request struct {
	// RunID is assigned when empty.
	RunID  string
	Source string
	Task   Task
	// ModelSize falls back to the configured model when empty.
	ModelSize modelcache.Size
	// Language is a source language hint; empty or "auto" lets the model detect.
	Language string
}

// ArtifactBundle is the product of a fully successful run.
type ArtifactBundle struct {
	TranscriptText     string
	VTTText            string
	SRTText            string
	SubtitledVideoPath string
	ArchivePath        string
	RunDir             string
	PublishedURL       string
	DetectedLanguage   string
	LanguageName       string
	CueCount           int
}

// PartialArtifacts holds the text output of a run whose burn-in failed.
type PartialArtifacts struct {
	TranscriptText string
	VTTText        string
	SRTText        string
	// RunDir is where the transcripts were written; empty if that failed too.
	RunDir string
}

// Result is returned by Run for both success and failure. Bundle is set
// only on success; Partial only after a mux failure.
type Result struct {
	RunID            string
	Bundle           *ArtifactBundle
	Partial          *PartialArtifacts
	DetectedLanguage string
	LanguageName     string
	Warnings         []string
	Duration         time.Duration
}

// StageError reports the stage that aborted a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Fetcher acquires source media.
type Fetcher interface {
	Fetch(ctx context.Context, desc source.Descriptor, dir string, progress func(source.Progress)) (string, error)
}

// AudioExtractor derives the recognizer input from media.
type AudioExtractor interface {
	Extract(ctx context.Context, mediaPath, dest, languageHint string) (audio.Info, error)
}

// ModelProvider hands out model leases.
type ModelProvider interface {
	GetOrLoad(ctx context.Context, size modelcache.Size) (*modelcache.Lease, error)
}

// Muxer burns subtitles into video.
type Muxer interface {
	Burn(ctx context.Context, req subtitles.BurnRequest) (string, error)
}

// Packager delivers artifacts.
type Packager interface {
	WriteTranscripts(req packager.Request) (packager.Bundle, error)
	Package(ctx context.Context, req packager.Request) (packager.Bundle, error)
}

// RunRecorder persists run transitions. Recording failures are logged and
// never fail a run.
type RunRecorder interface {
	Create(ctx context.Context, run *runstore.Run) error
	Update(ctx context.Context, run *runstore.Run) error
}

// Notifier announces finished runs. Delivery failures are logged and never
// change a run's outcome.
type Notifier interface {
	NotifyRunCompleted(ctx context.Context, summary notifications.Summary) error
	NotifyRunFailed(ctx context.Context, summary notifications.Summary, err error) error
}
