package pipeline

import (
	"context"
	"log/slog"

	"github.com/YatinSharma37/Anuvadika/internal/config"
	"github.com/YatinSharma37/Anuvadika/internal/deps"
	"github.com/YatinSharma37/Anuvadika/internal/media/audio"
	"github.com/YatinSharma37/Anuvadika/internal/modelcache"
	"github.com/YatinSharma37/Anuvadika/internal/notifications"
	"github.com/YatinSharma37/Anuvadika/internal/packager"
	"github.com/YatinSharma37/Anuvadika/internal/services/whisper"
	"github.com/YatinSharma37/Anuvadika/internal/source"
	"github.com/YatinSharma37/Anuvadika/internal/subtitles"
)

// WhisperConfig maps the inference section onto the engine settings.
func WhisperConfig(cfg *config.Config) whisper.Config {
	inf := cfg.Inference
	wc := whisper.Config{
		Engine:      whisper.Engine(inf.Engine),
		Binary:      inf.Binary,
		Device:      inf.Device,
		ComputeType: inf.ComputeType,
		CUDAEnabled: inf.CUDAEnabled,
		BestOf:      inf.BestOf,
		BeamSize:    inf.BeamSize,
		Temperature: inf.Temperature,
		HFToken:     inf.HFToken,
	}
	if inf.HostExclusive {
		wc.LockPath = cfg.InferenceLockPath()
	}
	return wc
}

// NewModelCache builds the process-wide model cache over the whisper loader.
func NewModelCache(cfg *config.Config, logger *slog.Logger) *modelcache.Cache {
	return modelcache.New(whisper.NewLoader(WhisperConfig(cfg), logger), logger)
}

// NewDefault wires the production collaborators. recorder may be nil.
func NewDefault(ctx context.Context, cfg *config.Config, models ModelProvider, recorder RunRecorder, logger *slog.Logger) (*Pipeline, error) {
	var pkgOpts []packager.Option
	if cfg.S3Enabled() {
		publisher, err := packager.NewS3Publisher(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, err
		}
		pkgOpts = append(pkgOpts, packager.WithPublisher(publisher))
	}
	collab := Deps{
		Fetcher:   source.NewFetcher(cfg.Source.YTDLPBinary, cfg.Source.Format, logger),
		Extractor: audio.NewExtractor(cfg.Media.FFmpegBinary, deps.ResolveFFprobe(cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary), logger),
		Models:    models,
		Muxer:     subtitles.NewMuxer(cfg.Media.FFmpegBinary, logger),
		Packager:  packager.New(cfg.Paths.LibraryDir, logger, pkgOpts...),
		Notifier:  notifications.NewService(cfg),
	}
	if recorder != nil {
		collab.Recorder = recorder
	}
	return New(cfg, collab, logger)
}
