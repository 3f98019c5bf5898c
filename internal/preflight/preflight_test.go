package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"github.com/YatinSharma37/Anuvadika/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckInferenceLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "inference.lock")

	if result := CheckInferenceLock(path); !result.Passed {
		t.Fatalf("expected free lock, got: %s", result.Detail)
	}

	holder := flock.New(path)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("hold lock: locked=%v err=%v", locked, err)
	}
	defer holder.Unlock()

	if result := CheckInferenceLock(path); result.Passed {
		t.Fatal("expected held lock to fail")
	}
}

func TestRequirementsFollowEngine(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Inference.Engine = "whisperx"
	cfg.Inference.Binary = "uvx"

	reqs := Requirements(cfg)
	last := reqs[len(reqs)-1]
	if last.Name != "uvx" || last.Command != "uvx" {
		t.Fatalf("unexpected engine requirement: %+v", last)
	}

	cfg.Inference.Engine = "whisper"
	cfg.Inference.Binary = "whisper"
	reqs = Requirements(cfg)
	if last := reqs[len(reqs)-1]; last.Name != "Whisper" {
		t.Fatalf("unexpected engine requirement: %+v", last)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StubbedTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_MissingDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	if err := os.RemoveAll(cfg.Paths.LibraryDir); err != nil {
		t.Fatal(err)
	}

	failed := Failed(RunAll(context.Background(), cfg))
	if len(failed) != 1 || failed[0].Name != "Library directory" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}
