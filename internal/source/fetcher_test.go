package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/services"
)

type stubExecutor struct {
	binary string
	args   []string
	lines  []string
	write  string
	err    error
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string, onOutput func(string)) error {
	s.binary = binary
	s.args = append([]string(nil), args...)
	for _, line := range s.lines {
		onOutput(line)
	}
	if s.write != "" {
		out := args[slices.Index(args, "-o")+1]
		path := filepath.Join(filepath.Dir(out), "source."+s.write)
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			return err
		}
	}
	return s.err
}

func TestFetchRemoteDownloadsAndReportsProgress(t *testing.T) {
	dir := t.TempDir()
	exec := &stubExecutor{
		lines: []string{
			"[youtube] dQw4w9WgXcQ: Downloading webpage",
			"[download]   0.0% of ~10.00MiB at 1.00MiB/s ETA 00:10",
			"[download]  42.5% of ~10.00MiB at 1.00MiB/s ETA 00:06",
			"[download] 100% of 10.00MiB in 00:10",
			"[download] Destination: source.mp4",
		},
		write: "mp4",
	}
	f := NewFetcher("", "", logging.NewNop(), WithExecutor(exec))
	desc, err := Parse("dQw4w9WgXcQ")
	if err != nil {
		t.Fatal(err)
	}

	var updates []float64
	path, err := f.Fetch(context.Background(), desc, dir, func(p Progress) { updates = append(updates, p.Percent) })
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != filepath.Join(dir, "source.mp4") {
		t.Fatalf("path = %q", path)
	}
	if !slices.Equal(updates, []float64{0, 42.5, 100}) {
		t.Fatalf("progress = %v", updates)
	}
	if exec.binary != "yt-dlp" || exec.args[1] != DefaultFormat || !slices.Contains(exec.args, "--newline") {
		t.Fatalf("unexpected invocation %s %v", exec.binary, exec.args)
	}
	if exec.args[len(exec.args)-1] != desc.URL {
		t.Fatalf("url should be last arg: %v", exec.args)
	}
}

func TestFetchRemoteFailure(t *testing.T) {
	exec := &stubExecutor{lines: []string{"ERROR: Video unavailable"}, err: errors.New("exit status 1")}
	f := NewFetcher("yt-dlp", "", logging.NewNop(), WithExecutor(exec))
	desc, _ := Parse("dQw4w9WgXcQ")
	_, err := f.Fetch(context.Background(), desc, t.TempDir(), nil)
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected SourceUnavailable, got %v", err)
	}
}

func TestFetchRemoteNoOutput(t *testing.T) {
	f := NewFetcher("yt-dlp", "", logging.NewNop(), WithExecutor(&stubExecutor{}))
	desc, _ := Parse("dQw4w9WgXcQ")
	if _, err := f.Fetch(context.Background(), desc, t.TempDir(), nil); !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected SourceUnavailable, got %v", err)
	}
}

func TestFetchLocalUsesFileInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mkv")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	desc, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher("", "", logging.NewNop(), WithExecutor(&stubExecutor{err: errors.New("should not run")}))
	got, err := f.Fetch(context.Background(), desc, t.TempDir(), nil)
	if err != nil || got != path {
		t.Fatalf("Fetch = %q, %v", got, err)
	}
}

func TestFetchLocalEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mp4")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	desc, _ := Parse(path)
	f := NewFetcher("", "", logging.NewNop())
	if _, err := f.Fetch(context.Background(), desc, t.TempDir(), nil); !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected SourceUnavailable, got %v", err)
	}
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		line string
		want float64
		ok   bool
	}{
		{"[download]  12.3% of 5MiB", 12.3, true},
		{"[download] 100% of 5MiB in 00:01", 100, true},
		{"[download] Destination: x.mp4", 0, false},
		{"[info] something", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseProgress(tt.line)
		if ok != tt.ok || got.Percent != tt.want {
			t.Errorf("parseProgress(%q) = %v, %v", tt.line, got.Percent, ok)
		}
	}
}
