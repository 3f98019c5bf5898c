package runstore

import "time"

// Status represents the lifecycle of a pipeline run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAcquiring  Status = "acquiring"
	StatusExtracting Status = "extracting"
	StatusInferring  Status = "inferring"
	StatusFormatting Status = "formatting"
	StatusMuxing     Status = "muxing"
	StatusPackaging  Status = "packaging"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// InterruptedReason is recorded on runs that were in flight when the
// process exited.
const InterruptedReason = "run interrupted before completion"

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Run is a persisted pipeline run.
type Run struct {
	ID               string `json:"id"`
	Source           string `json:"source"`
	Task             string `json:"task"`
	Model            string `json:"model"`
	Language         string `json:"language,omitempty"` // requested language hint
	Status           Status `json:"status"`
	Stage            string `json:"stage,omitempty"`
	ErrorKind        string `json:"error_kind,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
	DetectedLanguage string `json:"detected_language,omitempty"`
	LanguageName     string `json:"language_name,omitempty"`
	RunDir           string `json:"run_dir,omitempty"`
	ArchivePath      string `json:"archive_path,omitempty"`
	VideoPath        string `json:"video_path,omitempty"`
	PublishedURL     string `json:"published_url,omitempty"`
	// Partial marks runs that delivered transcripts without a video.
	Partial   bool      `json:"partial"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Duration returns how long the run took or has been running.
func (r Run) Duration() time.Duration {
	if r.CreatedAt.IsZero() || r.UpdatedAt.IsZero() {
		return 0
	}
	return r.UpdatedAt.Sub(r.CreatedAt)
}
