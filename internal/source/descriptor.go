package source

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/YatinSharma37/Anuvadika/internal/services"
)

// Kind distinguishes local files from remote videos.
type Kind string

const (
	KindLocal   Kind = "local"
	KindYouTube Kind = "youtube"
)

// LocalExtensions lists the accepted local video containers.
var LocalExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}

// Descriptor is a validated acquisition target.
type Descriptor struct {
	Kind    Kind
	Input   string
	URL     string // canonical watch URL for remote sources
	VideoID string
	Path    string // absolute path for local sources
}

// Stem returns a filesystem-safe base name for derived artifacts.
func (d Descriptor) Stem() string {
	switch d.Kind {
	case KindLocal:
		base := strings.TrimSuffix(filepath.Base(d.Path), filepath.Ext(d.Path))
		if stem := sanitizeFileName(base); stem != "" {
			return stem
		}
	case KindYouTube:
		return "youtube_" + d.VideoID
	}
	return "video"
}

// Remote reports whether the source must be downloaded.
func (d Descriptor) Remote() bool { return d.Kind != KindLocal }

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// WatchURL returns the canonical URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// Parse validates input and classifies it.
func Parse(input string) (Descriptor, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Descriptor{}, services.Wrap(services.ErrSourceUnavailable, "acquire", "parse source", "empty source", nil)
	}
	if id, ok := youtubeID(trimmed); ok {
		return Descriptor{Kind: KindYouTube, Input: trimmed, URL: WatchURL(id), VideoID: id}, nil
	}
	desc, err := localFile(trimmed)
	switch {
	case err == nil:
		return desc, nil
	case errors.Is(err, services.ErrSourceUnavailable):
		return Descriptor{}, err
	case !errors.Is(err, fs.ErrNotExist):
		return Descriptor{}, services.Wrap(services.ErrSourceUnavailable, "acquire", "parse source", trimmed, err)
	}
	return Descriptor{}, services.Wrap(services.ErrSourceUnavailable, "acquire", "parse source",
		fmt.Sprintf("%q is neither a YouTube link nor an existing video file", trimmed), nil)
}

func youtubeID(input string) (string, bool) {
	if videoIDPattern.MatchString(input) {
		if _, err := os.Stat(input); err != nil {
			return input, true
		}
		// A local file named like an id wins.
		return "", false
	}

	raw := input
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	path := strings.Trim(u.Path, "/")

	var candidate string
	switch host {
	case "youtu.be":
		candidate = firstSegment(path)
	case "youtube.com":
		switch {
		case path == "watch":
			candidate = u.Query().Get("v")
		case strings.HasPrefix(path, "embed/"):
			candidate = firstSegment(strings.TrimPrefix(path, "embed/"))
		case strings.HasPrefix(path, "v/"):
			candidate = firstSegment(strings.TrimPrefix(path, "v/"))
		case strings.HasPrefix(path, "shorts/"):
			candidate = firstSegment(strings.TrimPrefix(path, "shorts/"))
		}
	default:
		return "", false
	}
	if !videoIDPattern.MatchString(candidate) {
		return "", false
	}
	return candidate, true
}

func firstSegment(path string) string {
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[:idx]
	}
	return path
}

func localFile(input string) (Descriptor, error) {
	path := input
	if strings.HasPrefix(path, "file://") {
		if u, err := url.Parse(path); err == nil {
			path = u.Path
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Descriptor{}, err
	}
	if info.IsDir() {
		return Descriptor{}, services.Wrap(services.ErrSourceUnavailable, "acquire", "parse source", path+" is a directory", nil)
	}
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, allowed := range LocalExtensions {
		if ext == allowed {
			supported = true
			break
		}
	}
	if !supported {
		return Descriptor{}, services.Wrap(services.ErrSourceUnavailable, "acquire", "parse source",
			fmt.Sprintf("unsupported video extension %q (want one of %s)", ext, strings.Join(LocalExtensions, ", ")), nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Descriptor{Kind: KindLocal, Input: input, Path: abs}, nil
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "", "\"", "", "<", "", ">", "", "|", "", " ", "_")
	return strings.TrimSpace(replacer.Replace(name))
}
