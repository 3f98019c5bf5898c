package runstore_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/YatinSharma37/Anuvadika/internal/runstore"
	"github.com/YatinSharma37/Anuvadika/internal/testsupport"
)

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunStore(t, cfg)
	ctx := context.Background()

	run := testsupport.NewRun(t, store, "0f8c2d1e-aaaa", "dQw4w9WgXcQ")
	if run.Status != runstore.StatusPending || run.CreatedAt.IsZero() {
		t.Fatalf("expected defaults to be filled, got %+v", run)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Source != "dQw4w9WgXcQ" || got.Task != "transcribe" || got.Model != "base" {
		t.Fatalf("unexpected run %+v", got)
	}

	byPrefix, err := store.Get(ctx, "0f8c")
	if err != nil || byPrefix == nil || byPrefix.ID != run.ID {
		t.Fatalf("Get by prefix = %+v, %v", byPrefix, err)
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("Get missing = %+v, %v", missing, err)
	}
}

func TestGetAmbiguousPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunStore(t, cfg)
	testsupport.NewRun(t, store, "abc-1", "a")
	testsupport.NewRun(t, store, "abc-2", "b")

	if _, err := store.Get(context.Background(), "abc"); err == nil {
		t.Fatal("expected ambiguity error")
	}
	exact, err := store.Get(context.Background(), "abc-2")
	if err != nil || exact == nil || exact.Source != "b" {
		t.Fatalf("exact lookup = %+v, %v", exact, err)
	}
}

func TestUpdatePersistsFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunStore(t, cfg)
	ctx := context.Background()
	run := testsupport.NewRun(t, store, "run-1", "/videos/talk.mp4")

	run.Status = runstore.StatusFailed
	run.Stage = "mux"
	run.ErrorKind = "MuxError"
	run.ErrorMessage = "ffmpeg exited 1"
	run.DetectedLanguage = "es"
	run.LanguageName = "Spanish"
	run.RunDir = "/library/run-1"
	run.Partial = true
	if err := store.Update(ctx, run); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != runstore.StatusFailed || got.Stage != "mux" || got.ErrorKind != "MuxError" || !got.Partial {
		t.Fatalf("unexpected run %+v", got)
	}
	if got.LanguageName != "Spanish" || got.RunDir != "/library/run-1" {
		t.Fatalf("unexpected language/dir %+v", got)
	}
	if !got.Status.IsTerminal() {
		t.Fatal("failed should be terminal")
	}

	if err := store.Update(ctx, &runstore.Run{ID: "ghost", Status: runstore.StatusCompleted}); err == nil {
		t.Fatal("expected error updating unknown run")
	}
}

func TestListNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunStore(t, cfg)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 5; i++ {
		run := &runstore.Run{
			ID:        fmt.Sprintf("run-%d", i),
			Source:    "src",
			Task:      "transcribe",
			Model:     "base",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.Create(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "run-4" || runs[2].ID != "run-2" {
		ids := make([]string, 0, len(runs))
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestFailInterrupted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunStore(t, cfg)
	ctx := context.Background()

	inflight := testsupport.NewRun(t, store, "inflight", "a")
	inflight.Status = runstore.StatusInferring
	if err := store.Update(ctx, inflight); err != nil {
		t.Fatal(err)
	}
	done := testsupport.NewRun(t, store, "done", "b")
	done.Status = runstore.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatal(err)
	}

	n, err := store.FailInterrupted(ctx)
	if err != nil {
		t.Fatalf("FailInterrupted: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 interrupted run, got %d", n)
	}
	got, _ := store.Get(ctx, "inflight")
	if got.Status != runstore.StatusFailed || got.ErrorMessage != runstore.InterruptedReason {
		t.Fatalf("unexpected run %+v", got)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats[runstore.StatusFailed] != 1 || stats[runstore.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestActiveIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRunStore(t, cfg)
	ctx := context.Background()

	testsupport.NewRun(t, store, "pending", "a")
	failed := testsupport.NewRun(t, store, "failed", "b")
	failed.Status = runstore.StatusFailed
	if err := store.Update(ctx, failed); err != nil {
		t.Fatal(err)
	}

	ids, err := store.ActiveIDs(ctx)
	if err != nil {
		t.Fatalf("ActiveIDs: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected one active run, got %v", ids)
	}
	if _, ok := ids["pending"]; !ok {
		t.Fatalf("expected pending run to be active, got %v", ids)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "runs.db")
	store, err := runstore.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Create(context.Background(), &runstore.Run{ID: "keep", Source: "s", Task: "translate", Model: "small"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := runstore.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), "keep")
	if err != nil || got == nil || got.Task != "translate" {
		t.Fatalf("Get after reopen = %+v, %v", got, err)
	}
	if reopened.Path() != path {
		t.Fatalf("Path = %q", reopened.Path())
	}
}
