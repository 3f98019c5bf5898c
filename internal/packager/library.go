package packager

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileEntry is one artifact inside a run folder.
type FileEntry struct {
	Name string
	Size int64
}

// Entry summarizes a stored run.
type Entry struct {
	RunID    string
	Dir      string
	Modified time.Time
	Files    []FileEntry
}

// TotalBytes sums the sizes of the entry's files.
func (e Entry) TotalBytes() int64 {
	var total int64
	for _, f := range e.Files {
		total += f.Size
	}
	return total
}

// HasSubtitles reports whether the run produced at least one subtitle file.
func (e Entry) HasSubtitles() bool {
	for _, f := range e.Files {
		if f.Name == VTTFile || f.Name == SRTFile {
			return true
		}
	}
	return false
}

// List enumerates run folders under libraryDir, newest first. A missing
// library yields an empty list.
func List(libraryDir string) ([]Entry, error) {
	dirs, err := os.ReadDir(libraryDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	entries := make([]Entry, 0, len(dirs))
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		dir := filepath.Join(libraryDir, d.Name())
		entry := Entry{RunID: d.Name(), Dir: dir}
		if info, err := d.Info(); err == nil {
			entry.Modified = info.ModTime()
		}
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			entry.Files = append(entry.Files, FileEntry{Name: f.Name(), Size: info.Size()})
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Modified.Equal(entries[j].Modified) {
			return entries[i].RunID < entries[j].RunID
		}
		return entries[i].Modified.After(entries[j].Modified)
	})
	return entries, nil
}

// HasVideo reports whether the run folder holds a subtitled video, which
// partial deliveries lack.
func (e Entry) HasVideo() bool {
	for _, f := range e.Files {
		if strings.HasSuffix(f.Name, videoSuffix) {
			return true
		}
	}
	return false
}
