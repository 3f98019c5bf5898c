package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YatinSharma37/Anuvadika/internal/config"
	"github.com/YatinSharma37/Anuvadika/internal/language"
	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/media/audio"
	"github.com/YatinSharma37/Anuvadika/internal/modelcache"
	"github.com/YatinSharma37/Anuvadika/internal/notifications"
	"github.com/YatinSharma37/Anuvadika/internal/packager"
	"github.com/YatinSharma37/Anuvadika/internal/runstore"
	"github.com/YatinSharma37/Anuvadika/internal/services"
	"github.com/YatinSharma37/Anuvadika/internal/source"
	"github.com/YatinSharma37/Anuvadika/internal/subtitles"
)

const (
	audioFileName = "audio.wav"
	inferDirName  = "infer"

	// Packaging renames this to <stem>_subtitled.mp4 in the library.
	subtitledFileName = "subtitled.mp4"
)

var stageMarkers = map[Stage]error{
	StageAcquire: services.ErrSourceUnavailable,
	StageExtract: services.ErrMediaDecode,
	StageInfer:   services.ErrInference,
	StageFormat:  services.ErrFormat,
	StageMux:     services.ErrMux,
	StagePackage: services.ErrPackaging,
}

// Deps bundles the collaborators a Pipeline drives.
type Deps struct {
	Fetcher   Fetcher
	Extractor AudioExtractor
	Models    ModelProvider
	Muxer     Muxer
	Packager  Packager
	// Recorder and Notifier are optional.
	Recorder RunRecorder
	Notifier Notifier
}

// Pipeline runs requests against a fixed set of collaborators. It is safe
// for concurrent use; runs share nothing but the model provider.
type Pipeline struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
	newID  func() string
}

// New validates deps and returns a pipeline.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "pipeline", "config is required", nil)
	}
	missing := make([]string, 0, 5)
	if deps.Fetcher == nil {
		missing = append(missing, "fetcher")
	}
	if deps.Extractor == nil {
		missing = append(missing, "audio extractor")
	}
	if deps.Models == nil {
		missing = append(missing, "model provider")
	}
	if deps.Muxer == nil {
		missing = append(missing, "muxer")
	}
	if deps.Packager == nil {
		missing = append(missing, "packager")
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "pipeline", "missing "+strings.Join(missing, ", "), nil)
	}
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		newID:  uuid.NewString,
	}, nil
}

// run is the mutable state of one invocation.
type run struct {
	req     Request
	id      string
	scratch string
	record  *runstore.Run
	logger  *slog.Logger
	emit    func(Event)
	sampler *logging.ProgressSampler

	desc       source.Descriptor
	mediaPath  string
	audio      audio.Info
	inference  modelcache.Result
	language   string
	langName   string
	transcript string
	vtt        string
	srt        string
	srtPath    string
	cueCount   int
	subtitled  string
	warnings   []string
}

// Run executes req synchronously.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	return p.execute(ctx, req, nil)
}

func (p *Pipeline) execute(ctx context.Context, req Request, emit func(Event)) (Result, error) {
	started := time.Now()
	r, err := p.prepare(req, emit)
	if err != nil {
		return Result{RunID: r.id}, err
	}
	ctx = services.WithRunID(ctx, r.id)

	closeRunLog := p.attachRunLog(r)
	defer closeRunLog()
	defer p.cleanup(r)

	r.logger.Info(
		"run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source", r.req.Source),
		logging.String("task", string(r.req.Task)),
		logging.String("model", string(r.req.ModelSize)),
		logging.String("language_hint", r.req.Language),
	)
	p.recordCreate(ctx, r)

	stages := []struct {
		stage Stage
		fn    func(context.Context, *run, *slog.Logger) error
	}{
		{StageAcquire, p.acquire},
		{StageExtract, p.extract},
		{StageInfer, p.infer},
		{StageFormat, p.format},
		{StageMux, p.mux},
		{StagePackage, p.pack},
	}

	result := Result{RunID: r.id}
	for _, s := range stages {
		if err := p.runStage(ctx, r, s.stage, s.fn); err != nil {
			if s.stage == StageMux {
				result.Partial = p.deliverPartial(r)
			}
			result.DetectedLanguage = r.language
			result.LanguageName = r.langName
			result.Warnings = r.warnings
			result.Duration = time.Since(started)
			p.finishFailed(ctx, r, err, result.Duration)
			return result, err
		}
	}

	bundle := &ArtifactBundle{
		TranscriptText:     r.transcript,
		VTTText:            r.vtt,
		SRTText:            r.srt,
		SubtitledVideoPath: r.record.VideoPath,
		ArchivePath:        r.record.ArchivePath,
		RunDir:             r.record.RunDir,
		PublishedURL:       r.record.PublishedURL,
		DetectedLanguage:   r.language,
		LanguageName:       r.langName,
		CueCount:           r.cueCount,
	}
	result.Bundle = bundle
	result.DetectedLanguage = r.language
	result.LanguageName = r.langName
	result.Warnings = r.warnings
	result.Duration = time.Since(started)
	p.finishCompleted(ctx, r, result.Duration)
	return result, nil
}

func (p *Pipeline) prepare(req Request, emit func(Event)) (*run, error) {
	r := &run{req: req, emit: emit, sampler: logging.NewProgressSampler(10)}
	r.id = strings.TrimSpace(req.RunID)
	if r.id == "" {
		r.id = p.newID()
	}
	r.logger = p.logger.With(logging.String(logging.FieldRunID, r.id))
	r.req.Source = strings.TrimSpace(req.Source)
	if r.req.Task == "" {
		r.req.Task = modelcache.TaskTranscribe
	}
	if r.req.ModelSize == "" {
		size, err := modelcache.ParseSize(p.cfg.Inference.Model)
		if err != nil {
			return r, err
		}
		r.req.ModelSize = size
	}
	if language.IsAuto(r.req.Language) {
		r.req.Language = ""
	}
	if r.req.Task == modelcache.TaskTranslate && !r.req.ModelSize.Multilingual() {
		return r, services.Wrap(services.ErrConfiguration, "", "prepare run",
			fmt.Sprintf("model %s cannot translate; choose a multilingual model", r.req.ModelSize), nil)
	}
	if r.req.Source == "" {
		return r, &StageError{Stage: StageAcquire, Err: services.Wrap(services.ErrSourceUnavailable, string(StageAcquire), "parse source", "source is empty", nil)}
	}

	r.scratch = filepath.Join(p.cfg.Paths.StagingDir, r.id)
	if err := os.MkdirAll(r.scratch, 0o755); err != nil {
		return r, services.Wrap(services.ErrConfiguration, "", "prepare run", "create scratch directory", err)
	}
	r.record = &runstore.Run{
		ID:       r.id,
		Source:   r.req.Source,
		Task:     string(r.req.Task),
		Model:    string(r.req.ModelSize),
		Language: r.req.Language,
		Status:   runstore.StatusPending,
	}
	return r, nil
}

// attachRunLog tees the run's log lines into <log_dir>/runs/<id>.log.
func (p *Pipeline) attachRunLog(r *run) func() {
	logDir := strings.TrimSpace(p.cfg.Paths.LogDir)
	if logDir == "" {
		return func() {}
	}
	path := logging.RunLogPath(logDir, r.id)
	fileLogger, closer, err := logging.NewRunFileLogger(path, p.cfg.Logging.Level)
	if err != nil {
		logging.WarnWithContext(r.logger, "run log unavailable", "run_log_unavailable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run details only in the main log"),
		)
		return func() {}
	}
	r.logger = logging.TeeLogger(r.logger, fileLogger.Handler())
	return func() { _ = closer.Close() }
}

func (p *Pipeline) runStage(ctx context.Context, r *run, stage Stage, fn func(context.Context, *run, *slog.Logger) error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Err: services.Wrap(stageMarkers[stage], string(stage), "start", "run canceled before stage", err)}
	}

	stageCtx := services.WithStage(ctx, string(stage))
	cancel := func() {}
	timeout := p.cfg.StageTimeout(string(stage))
	if timeout > 0 {
		stageCtx, cancel = context.WithTimeout(stageCtx, timeout)
	}
	defer cancel()

	logger := logging.WithContext(stageCtx, r.logger)
	logger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stageStatus[stage])),
		logging.Duration("timeout", timeout),
	)
	r.record.Status = stageStatus[stage]
	r.record.Stage = string(stage)
	p.recordUpdate(ctx, r, "processing transition")
	p.publish(r, Event{Stage: stage, Kind: EventStarted, Message: fmt.Sprintf("%s started", stage)})

	started := time.Now()
	err := fn(stageCtx, r, logger)
	if err == nil {
		err = stageCtx.Err()
	}
	if err != nil {
		err = classify(stageCtx, stage, timeout, err)
		logger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("resolved_status", string(runstore.StatusFailed)),
			logging.Duration("stage_duration", time.Since(started)),
			logging.ErrorKind(err),
			logging.Error(err),
		)
		p.publish(r, Event{Stage: stage, Kind: EventFailed, Message: err.Error()})
		return &StageError{Stage: stage, Err: err}
	}

	logger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(started)),
	)
	p.publish(r, Event{Stage: stage, Kind: EventCompleted, Percent: 100, Message: fmt.Sprintf("%s completed", stage)})
	return nil
}

// classify makes sure err carries the stage marker, plus ErrTimeout when
// the stage deadline expired.
func classify(ctx context.Context, stage Stage, timeout time.Duration, err error) error {
	if !errors.Is(err, stageMarkers[stage]) {
		err = services.Wrap(stageMarkers[stage], string(stage), "run", "", err)
	}
	expired := errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
	if expired && !errors.Is(err, services.ErrTimeout) {
		err = services.Wrap(services.ErrTimeout, string(stage), "run", fmt.Sprintf("exceeded %s stage timeout %s", stage, timeout), err)
	}
	return err
}

func (p *Pipeline) acquire(ctx context.Context, r *run, logger *slog.Logger) error {
	desc, err := source.Parse(r.req.Source)
	if err != nil {
		return err
	}
	r.desc = desc
	path, err := p.deps.Fetcher.Fetch(ctx, desc, r.scratch, func(pr source.Progress) {
		if pr.Percent >= 0 && r.sampler.ShouldLog(string(StageAcquire), pr.Percent) {
			logger.Debug("download progress",
				logging.Percent(pr.Percent),
				logging.String("progress_message", pr.Message),
			)
		}
		p.publish(r, Event{Stage: StageAcquire, Kind: EventProgress, Percent: pr.Percent, Message: pr.Message})
	})
	if err != nil {
		return err
	}
	r.mediaPath = path
	logger.Info("source acquired",
		logging.String("source_kind", string(desc.Kind)),
		logging.String("media_path", path),
	)
	return nil
}

func (p *Pipeline) extract(ctx context.Context, r *run, logger *slog.Logger) error {
	dest := filepath.Join(r.scratch, audioFileName)
	info, err := p.deps.Extractor.Extract(ctx, r.mediaPath, dest, r.req.Language)
	if err != nil {
		return err
	}
	r.audio = info
	logger.Info("audio extracted",
		logging.String("audio_path", info.Path),
		logging.Float64("audio_duration_seconds", info.DurationSeconds),
	)
	return nil
}

func (p *Pipeline) infer(ctx context.Context, r *run, logger *slog.Logger) error {
	lease, err := p.deps.Models.GetOrLoad(ctx, r.req.ModelSize)
	if err != nil {
		return err
	}
	workDir := filepath.Join(r.scratch, inferDirName)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		lease.Release()
		return services.Wrap(services.ErrInference, string(StageInfer), "prepare", "create inference directory", err)
	}
	result, err := lease.Model().Transcribe(ctx, r.audio.Path, modelcache.Options{
		Task:     r.req.Task,
		Language: r.req.Language,
		WorkDir:  workDir,
	})
	lease.Release()
	if err != nil {
		return err
	}
	r.inference = result

	code := strings.TrimSpace(result.Language)
	if code == "" {
		code = r.req.Language
	}
	r.language = code
	if resolved, err := language.Resolve(code); err != nil {
		if !services.Recoverable(err) {
			return err
		}
		r.langName = language.DisplayName(code)
		msg := fmt.Sprintf("language %q is not recognized; showing raw code", code)
		r.warnings = append(r.warnings, msg)
		logging.WarnWithContext(logger, "detected language unsupported", "language_unsupported",
			logging.String("language", code),
			logging.String(logging.FieldImpact, "language name falls back to the raw code"),
		)
		p.publish(r, Event{Stage: StageInfer, Kind: EventWarning, Message: msg})
	} else {
		r.language = resolved.Code
		r.langName = resolved.Name
	}
	r.record.DetectedLanguage = r.language
	r.record.LanguageName = r.langName

	logger.Info("inference finished",
		logging.String("model", string(r.req.ModelSize)),
		logging.String("task", string(r.req.Task)),
		logging.String("detected_language", r.language),
		logging.Int("segments", len(result.Segments)),
	)
	return nil
}

func (p *Pipeline) format(ctx context.Context, r *run, logger *slog.Logger) error {
	opts := subtitles.Options{
		MaxLineWidth:   p.cfg.Subtitles.MaxLineWidth,
		MaxLinesPerCue: p.cfg.Subtitles.MaxLinesPerCue,
	}
	vttDoc, err := subtitles.Build(r.inference.Segments, subtitles.FormatVTT, opts)
	if err != nil {
		return err
	}
	srtDoc, err := subtitles.Build(r.inference.Segments, subtitles.FormatSRT, opts)
	if err != nil {
		return err
	}
	r.vtt = vttDoc.Render()
	r.srt = srtDoc.Render()
	r.cueCount = len(srtDoc.Cues)
	r.transcript = subtitles.Paragraphs(r.inference.Text)
	if err := ctx.Err(); err != nil {
		return err
	}

	r.srtPath = filepath.Join(r.scratch, "subtitles"+subtitles.FormatSRT.Extension())
	if err := os.WriteFile(r.srtPath, []byte(r.srt), 0o644); err != nil {
		return services.Wrap(services.ErrFormat, string(StageFormat), "write srt", r.srtPath, err)
	}
	logger.Info("cues formatted",
		logging.Int("cues", r.cueCount),
		logging.Int("max_line_width", opts.MaxLineWidth),
	)
	return nil
}

func (p *Pipeline) mux(ctx context.Context, r *run, logger *slog.Logger) error {
	output := filepath.Join(r.scratch, subtitledFileName)
	path, err := p.deps.Muxer.Burn(ctx, subtitles.BurnRequest{
		VideoPath:    r.mediaPath,
		SubtitlePath: r.srtPath,
		OutputPath:   output,
		Style:        p.cfg.Subtitles.BurnStyle,
		Language:     r.language,
	})
	if err != nil {
		return err
	}
	r.subtitled = path
	logger.Info("subtitles burned", logging.String("video_path", path))
	return nil
}

func (p *Pipeline) pack(ctx context.Context, r *run, _ *slog.Logger) error {
	bundle, err := p.deps.Packager.Package(ctx, p.packageRequest(r))
	if err != nil {
		return err
	}
	r.record.RunDir = bundle.Dir
	r.record.ArchivePath = bundle.ArchivePath
	r.record.VideoPath = bundle.VideoPath
	r.record.PublishedURL = bundle.PublishedURL
	return nil
}

func (p *Pipeline) packageRequest(r *run) packager.Request {
	return packager.Request{
		RunID:          r.id,
		Stem:           r.desc.Stem(),
		TranscriptText: r.transcript,
		VTTText:        r.vtt,
		SRTText:        r.srt,
		VideoPath:      r.subtitled,
	}
}

// deliverPartial writes the text artifacts of a run whose burn-in failed.
func (p *Pipeline) deliverPartial(r *run) *PartialArtifacts {
	partial := &PartialArtifacts{TranscriptText: r.transcript, VTTText: r.vtt, SRTText: r.srt}
	bundle, err := p.deps.Packager.WriteTranscripts(p.packageRequest(r))
	if err != nil {
		logging.WarnWithContext(r.logger, "partial delivery failed", "partial_delivery_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "transcripts only available in the run result"),
		)
	} else {
		partial.RunDir = bundle.Dir
		r.record.RunDir = bundle.Dir
	}
	r.record.Partial = true
	r.logger.Info("partial artifacts delivered",
		logging.String(logging.FieldEventType, "partial_delivery"),
		logging.String("run_dir", partial.RunDir),
	)
	return partial
}

func (p *Pipeline) finishFailed(ctx context.Context, r *run, err error, elapsed time.Duration) {
	details := services.DetailsFor(err)
	r.record.Status = runstore.StatusFailed
	r.record.ErrorKind = details.Kind
	r.record.ErrorMessage = details.Message
	p.recordUpdate(context.WithoutCancel(ctx), r, "stage failure")
	r.logger.Error(
		"run failed",
		logging.String(logging.FieldEventType, "run_failed"),
		logging.String(logging.FieldStage, r.record.Stage),
		logging.Bool("partial", r.record.Partial),
		logging.Bool("timed_out", details.TimedOut),
		logging.ErrorKind(err),
		logging.Error(err),
	)
	p.notify(ctx, r, elapsed, err)
	p.publish(r, Event{Stage: StageRun, Kind: EventFailed, Message: details.Message})
}

func (p *Pipeline) finishCompleted(ctx context.Context, r *run, elapsed time.Duration) {
	r.record.Status = runstore.StatusCompleted
	p.recordUpdate(ctx, r, "completion")
	r.logger.Info(
		"run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("archive_path", r.record.ArchivePath),
		logging.String("video_path", r.record.VideoPath),
		logging.Int("cues", r.cueCount),
		logging.Duration("run_duration", elapsed),
	)
	p.notify(ctx, r, elapsed, nil)
	p.publish(r, Event{Stage: StageRun, Kind: EventCompleted, Percent: 100, Message: "run completed"})
}

// notify runs before the terminal event so callers waiting on it observe a
// finished notification attempt.
func (p *Pipeline) notify(ctx context.Context, r *run, elapsed time.Duration, runErr error) {
	if p.deps.Notifier == nil {
		return
	}
	summary := notifications.Summary{
		RunID:        r.id,
		Source:       r.req.Source,
		Task:         string(r.req.Task),
		LanguageName: r.langName,
		ArchivePath:  r.record.ArchivePath,
		PublishedURL: r.record.PublishedURL,
		CueCount:     r.cueCount,
		Partial:      r.record.Partial,
		Duration:     elapsed,
	}
	ctx = context.WithoutCancel(ctx)
	var err error
	if runErr != nil {
		err = p.deps.Notifier.NotifyRunFailed(ctx, summary, runErr)
	} else {
		err = p.deps.Notifier.NotifyRunCompleted(ctx, summary)
	}
	if err != nil {
		logging.WarnWithContext(r.logger, "run notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "run outcome was not announced"),
		)
	}
}

func (p *Pipeline) cleanup(r *run) {
	if r.scratch == "" || p.cfg.Workflow.KeepScratch {
		return
	}
	if err := os.RemoveAll(r.scratch); err != nil {
		logging.WarnWithContext(r.logger, "scratch cleanup failed", "scratch_cleanup_failed",
			logging.String("scratch_dir", r.scratch),
			logging.Error(err),
			logging.String(logging.FieldImpact, "scratch files left on disk"),
		)
	}
}

func (p *Pipeline) recordCreate(ctx context.Context, r *run) {
	if p.deps.Recorder == nil {
		return
	}
	if err := p.deps.Recorder.Create(ctx, r.record); err != nil {
		logging.WarnWithContext(r.logger, "failed to record run", "run_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will be missing from history"),
		)
	}
}

func (p *Pipeline) recordUpdate(ctx context.Context, r *run, what string) {
	if p.deps.Recorder == nil {
		return
	}
	if err := p.deps.Recorder.Update(ctx, r.record); err != nil {
		logging.WarnWithContext(r.logger, "failed to persist "+what, "run_record_failed",
			logging.String("status", string(r.record.Status)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history may be stale"),
		)
	}
}

func (p *Pipeline) publish(r *run, ev Event) {
	if r.emit == nil {
		return
	}
	ev.RunID = r.id
	ev.Time = time.Now()
	ev.Overall = overallPercent(ev.Stage, ev.Percent)
	r.emit(ev)
}
