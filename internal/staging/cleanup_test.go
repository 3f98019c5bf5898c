package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
)

func makeScratch(t *testing.T, root, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "audio.wav"), []byte("RIFF1234"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(dir, stamp, stamp); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	return dir
}

func TestListDirectoriesMissingRoot(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		dirs, err := ListDirectories(dir)
		if err != nil || len(dirs) != 0 {
			t.Errorf("ListDirectories(%q) = %v, %v", dir, dirs, err)
		}
	}
}

func TestListDirectoriesOldestFirst(t *testing.T) {
	root := t.TempDir()
	makeScratch(t, root, "newer", time.Minute)
	makeScratch(t, root, "older", time.Hour)
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs, err := ListDirectories(root)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 directories, got %d", len(dirs))
	}
	if dirs[0].Name != "older" || dirs[1].Name != "newer" {
		t.Fatalf("unexpected order: %s, %s", dirs[0].Name, dirs[1].Name)
	}
	if dirs[0].Size != 8 {
		t.Fatalf("expected size 8, got %d", dirs[0].Size)
	}
}

func TestCandidates(t *testing.T) {
	now := time.Now()
	dirs := []DirInfo{
		{Name: "old", ModTime: now.Add(-2 * time.Hour)},
		{Name: "fresh", ModTime: now.Add(-time.Minute)},
		{Name: "live", ModTime: now.Add(-3 * time.Hour)},
	}
	active := map[string]struct{}{"live": {}}

	tests := []struct {
		name   string
		maxAge time.Duration
		want   []string
	}{
		{name: "age filter", maxAge: time.Hour, want: []string{"old"}},
		{name: "no age filter", maxAge: 0, want: []string{"old", "fresh"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Candidates(dirs, active, tc.maxAge, now)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tc.want))
			}
			for i, name := range tc.want {
				if got[i].Name != name {
					t.Fatalf("candidate %d = %s, want %s", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestCleanStaleKeepsActiveAndRecent(t *testing.T) {
	root := t.TempDir()
	stale := makeScratch(t, root, "stale-run", 2*time.Hour)
	live := makeScratch(t, root, "live-run", 2*time.Hour)
	recent := makeScratch(t, root, "recent-run", time.Minute)

	result, err := CleanStale(context.Background(), root, map[string]struct{}{"live-run": {}}, time.Hour, logging.NewNop())
	if err != nil {
		t.Fatalf("CleanStale: %v", err)
	}
	if len(result.Removed) != 1 || result.Removed[0].Path != stale {
		t.Fatalf("unexpected removals %+v", result.Removed)
	}
	if result.ReclaimedBytes != 8 {
		t.Fatalf("expected 8 reclaimed bytes, got %d", result.ReclaimedBytes)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale directory should have been removed")
	}
	for _, dir := range []string{live, recent} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("%s should still exist: %v", dir, err)
		}
	}
}

func TestRemoveStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	dir := makeScratch(t, root, "run", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Remove(ctx, []DirInfo{{Name: "run", Path: dir}}, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("directory should survive a cancelled pass: %v", err)
	}
}
