package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/YatinSharma37/Anuvadika/internal/language"
	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/modelcache"
	"github.com/YatinSharma37/Anuvadika/internal/services"
)

type model struct {
	size   modelcache.Size
	cfg    Config
	binary string
	run    commandRunner
	logger *slog.Logger

	mu     sync.Mutex
	lock   *flock.Flock
	closed bool
}

func (m *model) Size() modelcache.Size { return m.size }

func (m *model) Multilingual() bool { return m.size.Multilingual() }

func (m *model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.lock != nil {
		return m.lock.Unlock()
	}
	return nil
}

func (m *model) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Transcribe runs the engine on audioPath and parses its JSON output.
func (m *model) Transcribe(ctx context.Context, audioPath string, opts modelcache.Options) (modelcache.Result, error) {
	if m.isClosed() {
		return modelcache.Result{}, services.Wrap(services.ErrInference, "infer", "transcribe", "model handle closed", nil)
	}
	if strings.TrimSpace(audioPath) == "" {
		return modelcache.Result{}, services.Wrap(services.ErrInference, "infer", "transcribe", "audio path required", nil)
	}
	task := opts.Task
	if task == "" {
		task = modelcache.TaskTranscribe
	}
	if task == modelcache.TaskTranslate && !m.Multilingual() {
		return modelcache.Result{}, services.Wrap(services.ErrInference, "infer", "transcribe",
			fmt.Sprintf("model %s is English-only and cannot translate", m.size), nil)
	}

	outputDir := opts.WorkDir
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return modelcache.Result{}, services.Wrap(services.ErrInference, "infer", "transcribe", "ensure output dir", err)
	}

	args := m.buildArgs(audioPath, outputDir, task, opts.Language)
	m.logger.Info("inference started",
		logging.String(logging.FieldEventType, "inference_start"),
		logging.String("model", string(m.size)),
		logging.String("task", string(task)),
		logging.String("engine", string(m.cfg.Engine)),
	)
	if err := m.run(ctx, m.binary, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return modelcache.Result{}, services.Wrap(services.ErrInference, "infer", "transcribe", "engine interrupted",
				services.Wrap(services.ErrTimeout, "", "", "", ctxErr))
		}
		return modelcache.Result{}, services.Wrap(services.ErrInference, "infer", "transcribe", "engine failed", err)
	}

	jsonPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))+".json")
	result, err := LoadResult(jsonPath)
	if err != nil {
		return modelcache.Result{}, services.Wrap(services.ErrInference, "infer", "parse output", jsonPath, err)
	}
	if result.Language == "" && !language.IsAuto(opts.Language) {
		result.Language = strings.ToLower(strings.TrimSpace(opts.Language))
	}
	return result, nil
}

func (m *model) buildArgs(audioPath, outputDir string, task modelcache.Task, lang string) []string {
	args := make([]string, 0, 40)
	if m.cfg.Engine == EngineWhisperX {
		if m.cfg.CUDAEnabled {
			args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
		} else {
			args = append(args, "--index-url", PypiIndexURL)
		}
		args = append(args, whisperXPackage)
	}

	args = append(args,
		audioPath,
		"--model", string(m.size),
		"--task", string(task),
		"--output_format", OutputFormat,
		"--output_dir", outputDir,
		"--best_of", strconv.Itoa(m.cfg.BestOf),
		"--beam_size", strconv.Itoa(m.cfg.BeamSize),
		"--temperature", strconv.FormatFloat(m.cfg.Temperature, 'f', -1, 64),
		"--device", m.cfg.Device,
	)

	if !language.IsAuto(lang) {
		if resolved, err := language.Resolve(lang); err == nil {
			args = append(args, "--language", resolved.Code)
		} else {
			args = append(args, "--language", strings.ToLower(strings.TrimSpace(lang)))
		}
	}

	switch m.cfg.Engine {
	case EngineWhisperX:
		args = append(args, "--batch_size", WhisperXBatch)
		if m.cfg.ComputeType != "" {
			args = append(args, "--compute_type", m.cfg.ComputeType)
		}
		if m.cfg.HFToken != "" {
			args = append(args, "--hf_token", m.cfg.HFToken)
		}
	default:
		args = append(args, "--verbose", "False")
		if !m.cfg.CUDAEnabled {
			args = append(args, "--fp16", "False")
		}
	}
	return args
}

var errNoSegments = errors.New("engine output has neither text nor segments")
