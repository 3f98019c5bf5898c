package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/modelcache"
	"github.com/YatinSharma37/Anuvadika/internal/services"
)

const sampleJSON = `{"text":" Hello there. General Kenobi.","segments":[{"start":0,"end":1.5,"text":" Hello there."},{"start":1.5,"end":3.25,"text":" General Kenobi."}],"language":"en"}`

type recordingRunner struct {
	name   string
	args   []string
	output string
	err    error
}

func (r *recordingRunner) run(_ context.Context, name string, args ...string) error {
	r.name = name
	r.args = append([]string(nil), args...)
	if r.err != nil {
		return r.err
	}
	if r.output == "" {
		return nil
	}
	dir := argValue(args, "--output_dir")
	audio := ""
	for i, a := range args {
		if strings.HasSuffix(a, ".wav") && (i == 0 || !strings.HasPrefix(args[i-1], "--")) {
			audio = a
		}
	}
	base := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
	return os.WriteFile(filepath.Join(dir, base+".json"), []byte(r.output), 0o644)
}

func argValue(args []string, flag string) string {
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		return ""
	}
	return args[idx+1]
}

func newTestLoader(t *testing.T, cfg Config, runner *recordingRunner) *Loader {
	t.Helper()
	loader := NewLoader(cfg, logging.NewNop())
	loader.WithLookPath(func(name string) (string, error) { return "/usr/bin/" + name, nil })
	loader.WithCommandRunner(runner.run)
	return loader
}

func TestTranscribeWhisperParsesOutput(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{output: sampleJSON}
	loader := newTestLoader(t, Config{}, runner)

	m, err := loader.Load(context.Background(), modelcache.SizeBase)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer m.Close()

	res, err := m.Transcribe(context.Background(), filepath.Join(dir, "audio.wav"), modelcache.Options{Language: "English", WorkDir: dir})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "Hello there. General Kenobi." {
		t.Fatalf("text = %q", res.Text)
	}
	if len(res.Segments) != 2 || res.Segments[1].End != 3.25 || res.Segments[0].Text != "Hello there." {
		t.Fatalf("unexpected segments: %+v", res.Segments)
	}
	if res.Language != "en" {
		t.Fatalf("language = %q", res.Language)
	}
	if runner.name != "/usr/bin/whisper" {
		t.Fatalf("binary = %q", runner.name)
	}
	for flag, want := range map[string]string{
		"--model":         "base",
		"--task":          "transcribe",
		"--output_format": "json",
		"--language":      "en",
		"--device":        "cpu",
		"--best_of":       "5",
		"--fp16":          "False",
	} {
		if got := argValue(runner.args, flag); got != want {
			t.Errorf("%s = %q, want %q", flag, got, want)
		}
	}
}

func TestTranscribeWhisperXArgs(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{output: `{"segments":[{"start":0,"end":1,"text":"hola"},{"start":1,"end":2,"text":"amigo"}],"language":"es"}`}
	loader := newTestLoader(t, Config{Engine: EngineWhisperX, CUDAEnabled: true, ComputeType: "float16", HFToken: "tok"}, runner)

	m, err := loader.Load(context.Background(), modelcache.SizeLargeV3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := m.Transcribe(context.Background(), filepath.Join(dir, "clip.wav"), modelcache.Options{Task: modelcache.TaskTranslate, WorkDir: dir})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "hola amigo" {
		t.Fatalf("text = %q, want joined segments", res.Text)
	}
	if runner.name != "/usr/bin/uvx" {
		t.Fatalf("binary = %q", runner.name)
	}
	if argValue(runner.args, "--index-url") != CUDAIndexURL {
		t.Fatalf("expected CUDA index url in %v", runner.args)
	}
	if !slices.Contains(runner.args, whisperXPackage) {
		t.Fatalf("expected whisperx package in %v", runner.args)
	}
	if argValue(runner.args, "--device") != CUDADevice || argValue(runner.args, "--compute_type") != "float16" {
		t.Fatalf("unexpected device args %v", runner.args)
	}
	if argValue(runner.args, "--hf_token") != "tok" || argValue(runner.args, "--task") != "translate" {
		t.Fatalf("unexpected args %v", runner.args)
	}
	if slices.Contains(runner.args, "--language") {
		t.Fatalf("auto-detect should omit --language: %v", runner.args)
	}
}

func TestTranslateRequiresMultilingualModel(t *testing.T) {
	runner := &recordingRunner{output: sampleJSON}
	loader := newTestLoader(t, Config{}, runner)
	m, err := loader.Load(context.Background(), modelcache.SizeBaseEN)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = m.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"), modelcache.Options{Task: modelcache.TaskTranslate})
	if !errors.Is(err, services.ErrInference) {
		t.Fatalf("expected inference error, got %v", err)
	}
	if runner.name != "" {
		t.Fatal("engine should not run")
	}
}

func TestTranscribeEngineFailure(t *testing.T) {
	runner := &recordingRunner{err: errors.New("exit status 1")}
	loader := newTestLoader(t, Config{}, runner)
	m, _ := loader.Load(context.Background(), modelcache.SizeTiny)
	_, err := m.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"), modelcache.Options{})
	if !errors.Is(err, services.ErrInference) {
		t.Fatalf("expected inference error, got %v", err)
	}
}

func TestTranscribeMissingOutput(t *testing.T) {
	runner := &recordingRunner{}
	loader := newTestLoader(t, Config{}, runner)
	m, _ := loader.Load(context.Background(), modelcache.SizeTiny)
	_, err := m.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"), modelcache.Options{})
	if !errors.Is(err, services.ErrInference) {
		t.Fatalf("expected inference error, got %v", err)
	}
}

func TestLoadMissingBinary(t *testing.T) {
	loader := NewLoader(Config{Binary: "nope"}, logging.NewNop())
	loader.WithLookPath(func(string) (string, error) { return "", errors.New("not found") })
	if _, err := loader.Load(context.Background(), modelcache.SizeBase); !errors.Is(err, services.ErrInference) {
		t.Fatalf("expected inference error, got %v", err)
	}
}

func TestHostLockExclusive(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "state", "inference.lock")
	runner := &recordingRunner{}
	first := newTestLoader(t, Config{LockPath: lockPath}, runner)
	m, err := first.Load(context.Background(), modelcache.SizeBase)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := newTestLoader(t, Config{LockPath: lockPath}, runner)
	if _, err := second.Load(ctx, modelcache.SizeBase); !errors.Is(err, services.ErrInference) {
		t.Fatalf("expected lock contention error, got %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	again, err := second.Load(context.Background(), modelcache.SizeBase)
	if err != nil {
		t.Fatalf("Load after release: %v", err)
	}
	_ = again.Close()
}

func TestClosedModelRejectsWork(t *testing.T) {
	loader := newTestLoader(t, Config{}, &recordingRunner{})
	m, _ := loader.Load(context.Background(), modelcache.SizeBase)
	_ = m.Close()
	if _, err := m.Transcribe(context.Background(), "a.wav", modelcache.Options{}); !errors.Is(err, services.ErrInference) {
		t.Fatalf("expected inference error, got %v", err)
	}
}

func TestParseResultRejectsEmptyPayload(t *testing.T) {
	if _, err := ParseResult([]byte(`{"language":"en"}`)); err == nil {
		t.Fatal("expected error for payload without text or segments")
	}
	if _, err := ParseResult([]byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}
