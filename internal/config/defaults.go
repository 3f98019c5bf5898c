package config

const (
	defaultConfigPath        = "~/.config/anuvadika/config.toml"
	projectConfigName        = "anuvadika.toml"
	defaultStagingDir        = "~/.local/share/anuvadika/staging"
	defaultLibraryDir        = "~/.local/share/anuvadika/library"
	defaultLogDir            = "~/.local/share/anuvadika/logs"
	defaultStateDir          = "~/.local/state/anuvadika"
	defaultLogRetentionDays  = 30
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultInferenceEngine   = "whisper"
	defaultInferenceModel    = "base"
	defaultInferenceDevice   = "cpu"
	defaultComputeTypeCPU    = "int8"
	defaultComputeTypeCUDA   = "float16"
	defaultBestOf            = 5
	defaultBeamSize          = 5
	defaultMaxLineWidth      = 80
	defaultMaxLinesPerCue    = 2
	defaultYTDLPBinary       = "yt-dlp"
	defaultYTDLPFormat       = "best[ext=mp4]/best"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultAcquireTimeout    = 1800
	defaultExtractTimeout    = 600
	defaultInferTimeout      = 7200
	defaultFormatTimeout     = 60
	defaultMuxTimeout        = 3600
	defaultPackageTimeout    = 600
	defaultS3Prefix          = "anuvadika"
	defaultBurnStyle         = "FontName=Arial,FontSize=24,PrimaryColour=&HFFFFFF&,OutlineColour=&H000000&,Outline=1"
	defaultWhisperBinary     = "whisper"
	defaultWhisperXBinary    = "uvx"
	engineWhisper            = "whisper"
	engineWhisperX           = "whisperx"
	inferenceModelEnv        = "ANUVADIKA_MODEL"
	s3BucketEnv              = "ANUVADIKA_S3_BUCKET"
	huggingFaceTokenEnv      = "HF_TOKEN"
	defaultInferenceLockFile = "inference.lock"
	defaultRunnerLockFile    = "runner.lock"
	defaultNtfyTimeout       = 10
	ntfyTopicEnv             = "ANUVADIKA_NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			StateDir:   defaultStateDir,
		},
		Inference: Inference{
			Engine:   defaultInferenceEngine,
			Model:    defaultInferenceModel,
			Device:   defaultInferenceDevice,
			BestOf:   defaultBestOf,
			BeamSize: defaultBeamSize,
		},
		Subtitles: Subtitles{
			MaxLineWidth:   defaultMaxLineWidth,
			MaxLinesPerCue: defaultMaxLinesPerCue,
			BurnStyle:      defaultBurnStyle,
		},
		Source: Source{
			YTDLPBinary: defaultYTDLPBinary,
			Format:      defaultYTDLPFormat,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Workflow: Workflow{
			AcquireTimeout: defaultAcquireTimeout,
			ExtractTimeout: defaultExtractTimeout,
			InferTimeout:   defaultInferTimeout,
			FormatTimeout:  defaultFormatTimeout,
			MuxTimeout:     defaultMuxTimeout,
			PackageTimeout: defaultPackageTimeout,
		},
		Storage: Storage{
			S3: S3{Prefix: defaultS3Prefix},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
