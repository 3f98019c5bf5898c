package whisper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/modelcache"
	"github.com/YatinSharma37/Anuvadika/internal/services"
)

const lockPollInterval = 500 * time.Millisecond

type commandRunner func(ctx context.Context, name string, args ...string) error

// Loader implements modelcache.Loader for the configured engine.
type Loader struct {
	cfg      Config
	logger   *slog.Logger
	run      commandRunner
	lookPath func(string) (string, error)
}

// NewLoader constructs a loader. Zero decoding knobs fall back to defaults.
func NewLoader(cfg Config, logger *slog.Logger) *Loader {
	if cfg.Engine == "" {
		cfg.Engine = EngineWhisper
	}
	if strings.TrimSpace(cfg.Binary) == "" {
		if cfg.Engine == EngineWhisperX {
			cfg.Binary = "uvx"
		} else {
			cfg.Binary = "whisper"
		}
	}
	if cfg.BestOf <= 0 {
		cfg.BestOf = DefaultBestOf
	}
	if cfg.BeamSize <= 0 {
		cfg.BeamSize = DefaultBeamSize
	}
	if cfg.Device == "" {
		cfg.Device = CPUDevice
		if cfg.CUDAEnabled {
			cfg.Device = CUDADevice
		}
	}
	return &Loader{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "whisper"),
		run:      defaultCommandRunner,
		lookPath: exec.LookPath,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (l *Loader) WithCommandRunner(runner commandRunner) {
	if l != nil && runner != nil {
		l.run = runner
	}
}

// WithLookPath overrides binary discovery (for testing).
func (l *Loader) WithLookPath(fn func(string) (string, error)) {
	if l != nil && fn != nil {
		l.lookPath = fn
	}
}

// Load validates the engine binary and returns a model bound to size. The
// CLI engines load weights per invocation, so the handle mostly carries the
// host lock and decoding settings.
func (l *Loader) Load(ctx context.Context, size modelcache.Size) (modelcache.Model, error) {
	if _, err := modelcache.ParseSize(string(size)); err != nil {
		return nil, services.Wrap(services.ErrInference, "infer", "load model", "", err)
	}
	binary, err := l.lookPath(l.cfg.Binary)
	if err != nil {
		return nil, services.Wrap(services.ErrInference, "infer", "load model",
			fmt.Sprintf("%s engine binary %q not found", l.cfg.Engine, l.cfg.Binary), err)
	}

	var lock *flock.Flock
	if path := strings.TrimSpace(l.cfg.LockPath); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, services.Wrap(services.ErrInference, "infer", "load model", "create lock directory", err)
		}
		lock = flock.New(path)
		locked, err := lock.TryLockContext(ctx, lockPollInterval)
		if err != nil || !locked {
			if err == nil {
				err = fmt.Errorf("lock %s not acquired", path)
			}
			return nil, services.Wrap(services.ErrInference, "infer", "load model", "another process holds the inference lock", err)
		}
	}

	l.logger.Debug("model handle ready",
		logging.String("model", string(size)),
		logging.String("engine", string(l.cfg.Engine)),
		logging.String("binary", binary),
		logging.Bool("host_exclusive", lock != nil),
	)
	return &model{size: size, cfg: l.cfg, binary: binary, run: l.run, lock: lock, logger: l.logger}, nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Env = os.Environ()
	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(cmd.Env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		out := strings.TrimSpace(string(output))
		if len(out) > 2048 {
			out = out[len(out)-2048:]
		}
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}
