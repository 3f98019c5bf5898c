package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/modelcache"
	"github.com/YatinSharma37/Anuvadika/internal/pipeline"
	"github.com/YatinSharma37/Anuvadika/internal/preflight"
)

type runOptions struct {
	task       string
	model      string
	language   string
	jsonOutput bool
	noProgress bool
	skipChecks bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <file-or-youtube-url>",
		Short: "Transcribe a video and burn subtitles into it",
		Long: "Run the full pipeline for one source: download or open the video, extract audio,\n" +
			"transcribe (or translate to English), write VTT/SRT/text, burn the subtitles in\n" +
			"and package everything into the library.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.task, "task", "t", "transcribe", "transcribe or translate (to English)")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model size (defaults to the configured model)")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "auto", "Source language hint, or auto to detect")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().BoolVar(&opts.skipChecks, "skip-checks", false, "Skip preflight checks")
	return cmd
}

func runPipeline(cmd *cobra.Command, ctx *commandContext, sourceArg string, opts runOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	task, err := pipeline.ParseTask(opts.task)
	if err != nil {
		return err
	}
	var size modelcache.Size
	if strings.TrimSpace(opts.model) != "" {
		if size, err = modelcache.ParseSize(opts.model); err != nil {
			return err
		}
	}

	runCtx := cmd.Context()
	if !opts.skipChecks {
		if failed := preflight.Failed(preflight.RunAll(runCtx, cfg)); len(failed) > 0 {
			return preflightError(failed)
		}
	}

	progressOut := cmd.ErrOrStderr()
	interactive := !opts.noProgress && !opts.jsonOutput && isTerminal(progressOut)
	logger, err := ctx.newLogger(interactive)
	if err != nil {
		return err
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RunLogRetention(cfg.Paths.LogDir))

	store, err := ctx.openStore(runCtx)
	if err != nil {
		return err
	}
	if err := ctx.holdRunnerLock(); err != nil {
		return err
	}
	if !cfg.Workflow.KeepScratch {
		reclaimScratch(runCtx, cfg.Paths.StagingDir, store, staleScratchAge, logger)
	}

	models := pipeline.NewModelCache(cfg, logger)
	defer models.Close()

	p, err := pipeline.NewDefault(runCtx, cfg, models, store, logger)
	if err != nil {
		return err
	}

	job := p.Start(runCtx, pipeline.Request{
		Source:    sourceArg,
		Task:      task,
		ModelSize: size,
		Language:  opts.language,
	})

	var renderer eventRenderer
	if !opts.jsonOutput {
		renderer = newEventRenderer(progressOut, interactive)
	}
	for ev := range job.Events() {
		if renderer != nil {
			renderer.handle(ev)
		}
	}
	if renderer != nil {
		renderer.finish()
	}
	result, runErr := job.Wait()

	view := newRunResultView(result, runErr)
	if opts.jsonOutput {
		if err := writeJSON(cmd, view); err != nil {
			return err
		}
	} else {
		printRunResult(cmd.OutOrStdout(), view)
	}
	return runErr
}

func preflightError(failed []preflight.Result) error {
	lines := make([]string, 0, len(failed))
	for _, r := range failed {
		lines = append(lines, fmt.Sprintf("  %s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight checks failed (run `anuvadika check` for details):\n%s", strings.Join(lines, "\n"))
}

type runResultView struct {
	RunID            string   `json:"run_id"`
	Status           string   `json:"status"`
	FailedStage      string   `json:"failed_stage,omitempty"`
	ErrorKind        string   `json:"error_kind,omitempty"`
	Error            string   `json:"error,omitempty"`
	DetectedLanguage string   `json:"detected_language,omitempty"`
	LanguageName     string   `json:"language_name,omitempty"`
	Cues             int      `json:"cues,omitempty"`
	RunDir           string   `json:"run_dir,omitempty"`
	VideoPath        string   `json:"video_path,omitempty"`
	ArchivePath      string   `json:"archive_path,omitempty"`
	PublishedURL     string   `json:"published_url,omitempty"`
	Partial          bool     `json:"partial,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
	DurationSeconds  float64  `json:"duration_seconds"`
}

func newRunResultView(result pipeline.Result, runErr error) runResultView {
	view := runResultView{
		RunID:            result.RunID,
		Status:           "completed",
		DetectedLanguage: result.DetectedLanguage,
		LanguageName:     result.LanguageName,
		Warnings:         result.Warnings,
		DurationSeconds:  result.Duration.Round(time.Millisecond).Seconds(),
	}
	if b := result.Bundle; b != nil {
		view.Cues = b.CueCount
		view.RunDir = b.RunDir
		view.VideoPath = b.SubtitledVideoPath
		view.ArchivePath = b.ArchivePath
		view.PublishedURL = b.PublishedURL
	}
	if runErr != nil {
		view.Status = "failed"
		view.Error = runErr.Error()
		view.ErrorKind = errorKind(runErr)
		var stageErr *pipeline.StageError
		if errors.As(runErr, &stageErr) {
			view.FailedStage = string(stageErr.Stage)
		}
	}
	if p := result.Partial; p != nil {
		view.Partial = true
		view.RunDir = p.RunDir
	}
	return view
}

func printRunResult(out io.Writer, view runResultView) {
	if view.Status != "completed" {
		if view.Partial && view.RunDir != "" {
			fmt.Fprintf(out, "Burn-in failed; transcripts were saved to %s\n", view.RunDir)
		}
		return
	}
	language := view.LanguageName
	if view.DetectedLanguage != "" && !strings.EqualFold(view.DetectedLanguage, view.LanguageName) {
		language = fmt.Sprintf("%s (%s)", view.LanguageName, view.DetectedLanguage)
	}
	fmt.Fprintln(out, renderDetails([][2]string{
		{"Run", view.RunID},
		{"Language", language},
		{"Cues", fmt.Sprintf("%d", view.Cues)},
		{"Video", view.VideoPath},
		{"Archive", view.ArchivePath},
		{"Published", view.PublishedURL},
		{"Duration", formatDuration(time.Duration(view.DurationSeconds * float64(time.Second)))},
	}))
}
