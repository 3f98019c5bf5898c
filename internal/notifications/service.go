package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/YatinSharma37/Anuvadika/internal/config"
)

const userAgent = "Anuvadika/0.1.0"

// Summary describes a finished run.
type Summary struct {
	RunID        string
	Source       string
	Task         string
	LanguageName string
	ArchivePath  string
	PublishedURL string
	CueCount     int
	Partial      bool
	Duration     time.Duration
}

// Service is the notification surface used by the pipeline.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary Summary) error
	NotifyRunFailed(ctx context.Context, summary Summary, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil || !cfg.NotificationsEnabled() {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: cfg.Notifications.NtfyTopic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Subtitles ready: %s", displaySource(summary.Source))
	if summary.LanguageName != "" {
		fmt.Fprintf(&b, "\nLanguage: %s", summary.LanguageName)
	}
	if summary.CueCount > 0 {
		fmt.Fprintf(&b, "\nCues: %d", summary.CueCount)
	}
	if d := roundDuration(summary.Duration); d > 0 {
		fmt.Fprintf(&b, "\nTook: %s", d)
	}
	if summary.PublishedURL != "" {
		fmt.Fprintf(&b, "\nPublished: %s", summary.PublishedURL)
	} else if summary.ArchivePath != "" {
		fmt.Fprintf(&b, "\nArchive: %s", summary.ArchivePath)
	}
	return n.send(ctx, payload{
		title:   "Anuvadika - Run Complete",
		message: b.String(),
		tags:    []string{"anuvadika", taskTag(summary.Task), "completed"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, summary Summary, err error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ Run failed: %s", displaySource(summary.Source))
	b.WriteString("\nError: ")
	if err != nil {
		b.WriteString(strings.TrimSpace(err.Error()))
	} else {
		b.WriteString("unknown")
	}
	if summary.Partial {
		b.WriteString("\nTranscripts were delivered without a subtitled video")
	}
	return n.send(ctx, payload{
		title:    "Anuvadika - Run Failed",
		message:  b.String(),
		tags:     []string{"anuvadika", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Anuvadika - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"anuvadika", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displaySource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return "unknown source"
	}
	return source
}

func taskTag(task string) string {
	if task == "translate" {
		return "translate"
	}
	return "transcribe"
}

func roundDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d.Round(time.Second)
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, Summary) error     { return nil }
func (noopService) NotifyRunFailed(context.Context, Summary, error) error { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }
