package whisper

// Engine selects the recognizer implementation.
type Engine string

const (
	EngineWhisper  Engine = "whisper"
	EngineWhisperX Engine = "whisperx"
)

// Config captures runtime settings for inference.
type Config struct {
	Engine      Engine
	Binary      string // whisper executable, or uvx for WhisperX
	Device      string
	ComputeType string // WhisperX only
	CUDAEnabled bool
	BestOf      int
	BeamSize    int
	Temperature float64
	HFToken     string
	// LockPath enables the host-wide inference lock when non-empty.
	LockPath string
}

// Engine configuration constants.
const (
	CUDAIndexURL    = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL    = "https://pypi.org/simple"
	WhisperXBatch   = "4"
	OutputFormat    = "json"
	CPUDevice       = "cpu"
	CUDADevice      = "cuda"
	DefaultBestOf   = 5
	DefaultBeamSize = 5
	whisperXPackage = "whisperx"
)
