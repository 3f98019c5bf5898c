package packager

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/YatinSharma37/Anuvadika/internal/fileutil"
	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/services"
)

// Artifact file names inside a run folder.
const (
	TranscriptFile = "transcript.txt"
	VTTFile        = "transcript.vtt"
	SRTFile        = "transcript.srt"

	videoSuffix   = "_subtitled.mp4"
	archiveSuffix = "_transcripts_and_video.zip"
)

// Request carries everything a run produced.
type Request struct {
	RunID          string
	Stem           string
	TranscriptText string
	VTTText        string
	SRTText        string
	// VideoPath is the subtitled video in scratch; it is moved, not copied.
	VideoPath string
}

// Bundle lists the delivered files.
type Bundle struct {
	Dir            string
	TranscriptPath string
	VTTPath        string
	SRTPath        string
	VideoPath      string
	ArchivePath    string
	ArchiveBytes   int64
	PublishedURL   string
}

// Publisher uploads a finished archive and returns where it landed.
type Publisher interface {
	Publish(ctx context.Context, runID, archivePath string) (string, error)
}

// Option configures the packager.
type Option func(*Packager)

// WithPublisher enables remote publication of archives.
func WithPublisher(p Publisher) Option {
	return func(pk *Packager) {
		pk.publisher = p
	}
}

// Packager writes run folders under a library directory.
type Packager struct {
	libraryDir string
	publisher  Publisher
	logger     *slog.Logger
}

// New constructs a packager rooted at libraryDir.
func New(libraryDir string, logger *slog.Logger, opts ...Option) *Packager {
	p := &Packager{
		libraryDir: libraryDir,
		logger:     logging.NewComponentLogger(logger, "packager"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunDir returns the folder for runID.
func (p *Packager) RunDir(runID string) string {
	return filepath.Join(p.libraryDir, runID)
}

// WriteTranscripts stores the three text artifacts without a video. It is
// used on its own when burn-in fails so the transcripts still reach the user.
func (p *Packager) WriteTranscripts(req Request) (Bundle, error) {
	if strings.TrimSpace(req.RunID) == "" {
		return Bundle{}, services.Wrap(services.ErrPackaging, "package", "write transcripts", "run id required", nil)
	}
	dir := p.RunDir(req.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Bundle{}, services.Wrap(services.ErrPackaging, "package", "create run folder", dir, err)
	}
	bundle := Bundle{
		Dir:            dir,
		TranscriptPath: filepath.Join(dir, TranscriptFile),
		VTTPath:        filepath.Join(dir, VTTFile),
		SRTPath:        filepath.Join(dir, SRTFile),
	}
	files := []struct {
		path string
		text string
	}{
		{bundle.TranscriptPath, req.TranscriptText},
		{bundle.VTTPath, req.VTTText},
		{bundle.SRTPath, req.SRTText},
	}
	for _, f := range files {
		if err := fileutil.WriteFileAtomic(f.path, []byte(f.text), 0o644); err != nil {
			return Bundle{}, services.Wrap(services.ErrPackaging, "package", "write transcript", filepath.Base(f.path), err)
		}
	}
	return bundle, nil
}

// Package delivers a complete run: transcripts, the subtitled video and the
// archive, then publishes the archive when a publisher is configured.
func (p *Packager) Package(ctx context.Context, req Request) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return Bundle{}, services.Wrap(services.ErrPackaging, "package", "package", "interrupted",
			services.Wrap(services.ErrTimeout, "", "", "", err))
	}
	if strings.TrimSpace(req.VideoPath) == "" {
		return Bundle{}, services.Wrap(services.ErrPackaging, "package", "package", "subtitled video required", nil)
	}
	bundle, err := p.WriteTranscripts(req)
	if err != nil {
		return Bundle{}, err
	}

	stem := req.Stem
	if strings.TrimSpace(stem) == "" {
		stem = "video"
	}
	bundle.VideoPath = filepath.Join(bundle.Dir, stem+videoSuffix)
	if req.VideoPath != bundle.VideoPath {
		if err := fileutil.MoveFile(req.VideoPath, bundle.VideoPath); err != nil {
			return Bundle{}, services.Wrap(services.ErrPackaging, "package", "store video", req.VideoPath, err)
		}
	}

	bundle.ArchivePath = filepath.Join(bundle.Dir, stem+archiveSuffix)
	size, err := writeArchive(ctx, bundle.ArchivePath, []string{
		bundle.TranscriptPath,
		bundle.VTTPath,
		bundle.SRTPath,
		bundle.VideoPath,
	})
	if err != nil {
		return Bundle{}, services.Wrap(services.ErrPackaging, "package", "write archive", filepath.Base(bundle.ArchivePath), err)
	}
	bundle.ArchiveBytes = size

	if p.publisher != nil {
		url, err := p.publisher.Publish(ctx, req.RunID, bundle.ArchivePath)
		if err != nil {
			return Bundle{}, services.Wrap(services.ErrPackaging, "package", "publish archive", "", err)
		}
		bundle.PublishedURL = url
	}

	p.logger.Info("run packaged",
		logging.String(logging.FieldEventType, "package_complete"),
		logging.String("dir", bundle.Dir),
		logging.Int64("archive_bytes", bundle.ArchiveBytes),
		logging.String("published_url", bundle.PublishedURL),
	)
	return bundle, nil
}

// writeArchive zips files flat by base name into a temp file and renames it.
func writeArchive(ctx context.Context, dest string, files []string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.partial")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	fail := func(err error) (int64, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return 0, err
	}

	zw := zip.NewWriter(tmp)
	seen := make(map[string]struct{}, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		name := filepath.Base(path)
		if _, dup := seen[name]; dup {
			return fail(fmt.Errorf("duplicate archive entry %q", name))
		}
		seen[name] = struct{}{}
		if err := addToArchive(zw, path, name); err != nil {
			return fail(err)
		}
	}
	if err := zw.Close(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	info, err := os.Stat(dest)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func addToArchive(zw *zip.Writer, path, name string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate
	if strings.HasSuffix(name, ".mp4") {
		// Already compressed.
		header.Method = zip.Store
	}
	header.Modified = info.ModTime().In(time.UTC)
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
