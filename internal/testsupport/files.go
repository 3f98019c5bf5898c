package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/YatinSharma37/Anuvadika/internal/packager"
)

// WriteFile creates path, and any missing parents, holding size filler
// bytes. Sizes below one write a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size < 1 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{'B'}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteLibraryRun lays out a packaged run folder under libraryDir with the
// three transcript files and, when videoBytes > 0, a subtitled video named
// after stem. It returns the run folder.
func WriteLibraryRun(t testing.TB, libraryDir, runID, stem string, videoBytes int64) string {
	t.Helper()
	dir := filepath.Join(libraryDir, runID)
	WriteFile(t, filepath.Join(dir, packager.TranscriptFile), 512)
	WriteFile(t, filepath.Join(dir, packager.VTTFile), 1024)
	WriteFile(t, filepath.Join(dir, packager.SRTFile), 1024)
	if videoBytes > 0 {
		WriteFile(t, filepath.Join(dir, stem+"_subtitled.mp4"), videoBytes)
	}
	return dir
}
