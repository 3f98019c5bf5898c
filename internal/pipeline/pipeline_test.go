package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/YatinSharma37/Anuvadika/internal/config"
	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/media/audio"
	"github.com/YatinSharma37/Anuvadika/internal/modelcache"
	"github.com/YatinSharma37/Anuvadika/internal/notifications"
	"github.com/YatinSharma37/Anuvadika/internal/packager"
	"github.com/YatinSharma37/Anuvadika/internal/pipeline"
	"github.com/YatinSharma37/Anuvadika/internal/runstore"
	"github.com/YatinSharma37/Anuvadika/internal/services"
	"github.com/YatinSharma37/Anuvadika/internal/source"
	"github.com/YatinSharma37/Anuvadika/internal/subtitles"
	"github.com/YatinSharma37/Anuvadika/internal/testsupport"
)

type fakeFetcher struct {
	calls int
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, desc source.Descriptor, _ string, progress func(source.Progress)) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	progress(source.Progress{Percent: 50, Message: "halfway"})
	progress(source.Progress{Percent: 100, Message: "done"})
	return desc.Path, nil
}

type fakeExtractor struct {
	block bool
}

func (f *fakeExtractor) Extract(ctx context.Context, mediaPath, dest, _ string) (audio.Info, error) {
	if f.block {
		<-ctx.Done()
		return audio.Info{}, ctx.Err()
	}
	if err := os.WriteFile(dest, []byte("RIFF"), 0o644); err != nil {
		return audio.Info{}, err
	}
	return audio.Info{Path: dest, DurationSeconds: 4}, nil
}

type fakeModel struct {
	size     modelcache.Size
	language string

	mu    sync.Mutex
	calls []modelcache.Options
}

func (m *fakeModel) Size() modelcache.Size { return m.size }
func (m *fakeModel) Multilingual() bool    { return m.size.Multilingual() }
func (m *fakeModel) Close() error          { return nil }
func (m *fakeModel) Transcribe(_ context.Context, _ string, opts modelcache.Options) (modelcache.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.mu.Unlock()
	return modelcache.Result{
		Text: "Hello there. General Kenobi.",
		Segments: []subtitles.Segment{
			{Start: 0, End: 1.5, Text: "Hello there."},
			{Start: 1.5, End: 3, Text: "General Kenobi."},
		},
		Language: m.language,
	}, nil
}

type fakeLoader struct {
	language string

	mu     sync.Mutex
	loads  int
	models []*fakeModel
}

func (l *fakeLoader) Load(_ context.Context, size modelcache.Size) (modelcache.Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	m := &fakeModel{size: size, language: l.language}
	l.models = append(l.models, m)
	return m, nil
}

type fakeMuxer struct {
	err error
}

func (f *fakeMuxer) Burn(_ context.Context, req subtitles.BurnRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := os.Stat(req.SubtitlePath); err != nil {
		return "", err
	}
	if err := os.WriteFile(req.OutputPath, []byte("burned"), 0o644); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed []notifications.Summary
	failed    []notifications.Summary
	err       error
}

func (f *fakeNotifier) NotifyRunCompleted(_ context.Context, summary notifications.Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, summary)
	return f.err
}

func (f *fakeNotifier) NotifyRunFailed(_ context.Context, summary notifications.Summary, _ error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, summary)
	return f.err
}

type harness struct {
	cfg      *config.Config
	fetcher  *fakeFetcher
	extract  *fakeExtractor
	audio    pipeline.AudioExtractor
	loader   *fakeLoader
	muxer    *fakeMuxer
	notifier *fakeNotifier
	store    *runstore.Store
	pipeline *pipeline.Pipeline
	media    string
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	h := &harness{
		cfg:      cfg,
		fetcher:  &fakeFetcher{},
		extract:  &fakeExtractor{},
		loader:   &fakeLoader{language: "en"},
		muxer:    &fakeMuxer{},
		notifier: &fakeNotifier{},
		store:    testsupport.MustOpenRunStore(t, cfg),
	}
	h.media = filepath.Join(testsupport.BaseDir(cfg), "my clip.mp4")
	if err := os.WriteFile(h.media, []byte("video"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	h.pipeline = h.build(t, modelcache.New(h.loader, logging.NewNop()))
	return h
}

func (h *harness) build(t *testing.T, models pipeline.ModelProvider) *pipeline.Pipeline {
	t.Helper()
	var extractor pipeline.AudioExtractor = h.extract
	if h.audio != nil {
		extractor = h.audio
	}
	p, err := pipeline.New(h.cfg, pipeline.Deps{
		Fetcher:   h.fetcher,
		Extractor: extractor,
		Models:    models,
		Muxer:     h.muxer,
		Packager:  packager.New(h.cfg.Paths.LibraryDir, logging.NewNop()),
		Recorder:  h.store,
		Notifier:  h.notifier,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}

func (h *harness) record(t *testing.T, id string) *runstore.Run {
	t.Helper()
	run, err := h.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if run == nil {
		t.Fatalf("run %s not recorded", id)
	}
	return run
}

func TestRunProducesBundle(t *testing.T) {
	h := newHarness(t)

	result, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: h.media})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Bundle == nil {
		t.Fatal("expected bundle")
	}
	if result.Partial != nil {
		t.Fatal("partial should be nil on success")
	}
	b := result.Bundle
	if !strings.HasPrefix(b.VTTText, "WEBVTT\n") {
		t.Fatalf("vtt header missing: %q", b.VTTText)
	}
	if !strings.Contains(b.SRTText, "00:00:01,500 --> 00:00:03,000") {
		t.Fatalf("srt timing missing: %q", b.SRTText)
	}
	if !strings.Contains(b.TranscriptText, "Hello there.") {
		t.Fatalf("transcript = %q", b.TranscriptText)
	}
	if b.CueCount != 2 {
		t.Fatalf("cue count = %d, want 2", b.CueCount)
	}
	if filepath.Base(b.SubtitledVideoPath) != "my_clip_subtitled.mp4" {
		t.Fatalf("video path = %s", b.SubtitledVideoPath)
	}
	for _, path := range []string{b.SubtitledVideoPath, b.ArchivePath, filepath.Join(b.RunDir, packager.SRTFile)} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s: %v", path, err)
		}
	}
	if b.DetectedLanguage != "en" || b.LanguageName != "English" {
		t.Fatalf("language = %s/%s", b.DetectedLanguage, b.LanguageName)
	}

	if _, err := os.Stat(filepath.Join(h.cfg.Paths.StagingDir, result.RunID)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("scratch dir should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(logging.RunLogPath(h.cfg.Paths.LogDir, result.RunID)); err != nil {
		t.Fatalf("run log missing: %v", err)
	}

	run := h.record(t, result.RunID)
	if run.Status != runstore.StatusCompleted {
		t.Fatalf("status = %s", run.Status)
	}
	if run.ArchivePath != b.ArchivePath || run.DetectedLanguage != "en" {
		t.Fatalf("unexpected record: %+v", run)
	}
}

func TestRunMuxFailureDeliversPartial(t *testing.T) {
	h := newHarness(t)
	h.muxer.err = errors.New("ffmpeg exploded")

	result, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: h.media})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrMux) {
		t.Fatalf("expected mux error, got %v", err)
	}
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != pipeline.StageMux {
		t.Fatalf("expected mux stage error, got %v", err)
	}
	if result.Bundle != nil {
		t.Fatal("bundle must be nil on failure")
	}
	if result.Partial == nil {
		t.Fatal("expected partial artifacts")
	}
	if !strings.HasPrefix(result.Partial.VTTText, "WEBVTT") || result.Partial.SRTText == "" || result.Partial.TranscriptText == "" {
		t.Fatalf("partial incomplete: %+v", result.Partial)
	}
	data, err := os.ReadFile(filepath.Join(result.Partial.RunDir, packager.VTTFile))
	if err != nil {
		t.Fatalf("read partial vtt: %v", err)
	}
	if string(data) != result.Partial.VTTText {
		t.Fatal("partial vtt on disk differs from result")
	}

	run := h.record(t, result.RunID)
	if run.Status != runstore.StatusFailed || !run.Partial || run.ErrorKind != "MuxError" || run.Stage != "mux" {
		t.Fatalf("unexpected record: %+v", run)
	}
}

func TestRunNotifiesOutcome(t *testing.T) {
	h := newHarness(t)

	result, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: h.media})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.notifier.completed) != 1 {
		t.Fatalf("expected one completion notice, got %d", len(h.notifier.completed))
	}
	got := h.notifier.completed[0]
	if got.RunID != result.RunID || got.CueCount != 2 || got.ArchivePath == "" || got.LanguageName != "English" {
		t.Fatalf("unexpected summary %+v", got)
	}

	h.muxer.err = errors.New("ffmpeg exploded")
	h.notifier.err = errors.New("ntfy unreachable")
	if _, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: h.media}); !errors.Is(err, services.ErrMux) {
		t.Fatalf("notifier failure must not mask the run error, got %v", err)
	}
	if len(h.notifier.failed) != 1 || !h.notifier.failed[0].Partial {
		t.Fatalf("expected one partial failure notice, got %+v", h.notifier.failed)
	}
}

func TestRunTranslateKeepsDetectedLanguage(t *testing.T) {
	h := newHarness(t)
	h.loader.language = "fr"

	result, err := h.pipeline.Run(context.Background(), pipeline.Request{
		Source:    h.media,
		Task:      pipeline.TaskTranslate,
		ModelSize: modelcache.SizeSmall,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.DetectedLanguage != "fr" || result.LanguageName != "French" {
		t.Fatalf("language = %s/%s, want fr/French", result.DetectedLanguage, result.LanguageName)
	}
	model := h.loader.models[0]
	if len(model.calls) != 1 || model.calls[0].Task != modelcache.TaskTranslate {
		t.Fatalf("unexpected inference calls: %+v", model.calls)
	}
}

func TestRunTranslateRejectsEnglishOnlyModel(t *testing.T) {
	h := newHarness(t)
	_, err := h.pipeline.Run(context.Background(), pipeline.Request{
		Source:    h.media,
		Task:      pipeline.TaskTranslate,
		ModelSize: modelcache.SizeBaseEN,
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if h.fetcher.calls != 0 {
		t.Fatal("no stage should run")
	}
}

func TestRunLoadsModelOnce(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 2; i++ {
		if _, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: h.media, ModelSize: modelcache.SizeBase}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if h.loader.loads != 1 {
		t.Fatalf("loads = %d, want 1", h.loader.loads)
	}
}

func TestRunSourceUnavailable(t *testing.T) {
	h := newHarness(t)

	result, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: filepath.Join(t.TempDir(), "missing.mp4")})
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != pipeline.StageAcquire {
		t.Fatalf("expected acquire stage error, got %v", err)
	}
	if result.Bundle != nil || result.Partial != nil {
		t.Fatal("no artifacts expected")
	}
	if h.fetcher.calls != 0 || h.loader.loads != 0 {
		t.Fatal("later stages must not run")
	}
}

func TestRunUnsupportedLanguageWarns(t *testing.T) {
	h := newHarness(t)
	h.loader.language = "xx"

	result, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: h.media})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.LanguageName != "XX" {
		t.Fatalf("language name = %q", result.LanguageName)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v", result.Warnings)
	}
}

func TestRunCancellationStopsLaterStages(t *testing.T) {
	h := newHarness(t)
	h.extract.block = true

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := h.pipeline.Run(ctx, pipeline.Request{Source: h.media})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, services.ErrMediaDecode) {
		t.Fatalf("expected canceled extract, got %v", err)
	}
	if h.loader.loads != 0 {
		t.Fatal("inference must not start after cancellation")
	}
}

func TestRunStageTimeout(t *testing.T) {
	h := newHarness(t)
	h.cfg.Workflow.ExtractTimeout = 1
	h.extract.block = true

	_, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: h.media})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !errors.Is(err, services.ErrMediaDecode) {
		t.Fatalf("expected media decode marker, got %v", err)
	}
	if kind := services.Kind(err); kind != "MediaDecodeError" {
		t.Fatalf("kind = %s", kind)
	}
	if !services.DetailsFor(err).TimedOut {
		t.Fatal("expected timed out detail")
	}
}

func TestRunExtractProbeTimeoutKeepsStageKind(t *testing.T) {
	h := newHarness(t)
	h.cfg.Workflow.ExtractTimeout = 1
	extractor := audio.NewExtractor("ffmpeg", "ffprobe", logging.NewNop())
	extractor.WithProbeRunner(func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	h.audio = extractor
	h.pipeline = h.build(t, modelcache.New(h.loader, logging.NewNop()))

	result, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: h.media})
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != pipeline.StageExtract {
		t.Fatalf("expected extract stage error, got %v", err)
	}
	if !errors.Is(err, services.ErrMediaDecode) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected media decode timeout, got %v", err)
	}
	if run := h.record(t, result.RunID); run.ErrorKind != "MediaDecodeError" {
		t.Fatalf("recorded kind = %q", run.ErrorKind)
	}
	if h.loader.loads != 0 {
		t.Fatal("inference must not start after extract fails")
	}
}

func TestRunKeepScratch(t *testing.T) {
	h := newHarness(t, testsupport.WithKeepScratch())

	result, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: h.media})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Paths.StagingDir, result.RunID, "audio.wav")); err != nil {
		t.Fatalf("scratch audio should remain: %v", err)
	}
}

func TestConcurrentRunsUseSeparateScratch(t *testing.T) {
	h := newHarness(t, testsupport.WithKeepScratch())

	var wg sync.WaitGroup
	ids := make([]string, 2)
	errs := make([]error, 2)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := h.pipeline.Run(context.Background(), pipeline.Request{Source: h.media})
			ids[i], errs[i] = res.RunID, err
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if ids[0] == ids[1] {
		t.Fatal("runs share an id")
	}
	if h.loader.loads != 1 {
		t.Fatalf("loads = %d, want 1", h.loader.loads)
	}
}

func TestStartStreamsEvents(t *testing.T) {
	h := newHarness(t)

	job := h.pipeline.Start(context.Background(), pipeline.Request{Source: h.media})
	var events []pipeline.Event
	for ev := range job.Events() {
		events = append(events, ev)
	}
	result, err := job.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no events")
	}
	last := events[len(events)-1]
	if !last.Terminal() || last.Kind != pipeline.EventCompleted {
		t.Fatalf("last event = %+v", last)
	}

	var started []pipeline.Stage
	sawProgress := false
	for _, ev := range events {
		if ev.RunID != result.RunID {
			t.Fatalf("event run id %s, want %s", ev.RunID, result.RunID)
		}
		switch ev.Kind {
		case pipeline.EventStarted:
			started = append(started, ev.Stage)
		case pipeline.EventProgress:
			sawProgress = true
		}
	}
	want := pipeline.Stages()
	if len(started) != len(want) {
		t.Fatalf("started stages = %v", started)
	}
	for i := range want {
		if started[i] != want[i] {
			t.Fatalf("stage order = %v, want %v", started, want)
		}
	}
	if !sawProgress {
		t.Fatal("expected acquire progress events")
	}
}

func TestStartEmitsTerminalOnEarlyFailure(t *testing.T) {
	h := newHarness(t)

	job := h.pipeline.Start(context.Background(), pipeline.Request{Source: "  "})
	var last pipeline.Event
	for ev := range job.Events() {
		last = ev
	}
	if _, err := job.Wait(); err == nil {
		t.Fatal("expected error")
	}
	if !last.Terminal() || last.Kind != pipeline.EventFailed {
		t.Fatalf("last event = %+v", last)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := pipeline.New(cfg, pipeline.Deps{}, logging.NewNop()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
