package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ytsummarize/internal/config"
)

const userAgent = "yt-summarize/0.1.0"

// Service is the notification surface used by the CLI.
type Service interface {
	NotifySummaryReady(ctx context.Context, title, formats, outputDir string) error
	NotifyTranscriptExported(ctx context.Context, title, outputDir string) error
	NotifyError(ctx context.Context, err error, source string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
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

func (n *ntfyService) NotifySummaryReady(ctx context.Context, title, formats, outputDir string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}
	message := fmt.Sprintf("Summary ready: %s", title)
	if formats = strings.TrimSpace(formats); formats != "" {
		message += " (" + formats + ")"
	}
	if outputDir = strings.TrimSpace(outputDir); outputDir != "" {
		message += "\nOutput: " + outputDir
	}
	return n.send(ctx, payload{
		title:   "yt-summarize - Summary Ready",
		message: message,
		tags:    []string{"yt-summarize", "summary", "completed"},
	})
}

func (n *ntfyService) NotifyTranscriptExported(ctx context.Context, title, outputDir string) error {
	message := fmt.Sprintf("Transcript exported: %s", strings.TrimSpace(title))
	if outputDir = strings.TrimSpace(outputDir); outputDir != "" {
		message += "\nOutput: " + outputDir
	}
	return n.send(ctx, payload{
		title:    "yt-summarize - Transcript Exported",
		message:  message,
		tags:     []string{"yt-summarize", "transcript"},
		priority: "low",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, source string) error {
	var builder strings.Builder
	builder.WriteString("Failed")
	if source = strings.TrimSpace(source); source != "" {
		builder.WriteString(" to summarize ")
		builder.WriteString(source)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown error")
	}
	return n.send(ctx, payload{
		title:    "yt-summarize - Error",
		message:  builder.String(),
		tags:     []string{"yt-summarize", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "yt-summarize - Test",
		message:  "Notification system test",
		tags:     []string{"yt-summarize", "test"},
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

type noopService struct{}

func (noopService) NotifySummaryReady(context.Context, string, string, string) error { return nil }
func (noopService) NotifyTranscriptExported(context.Context, string, string) error   { return nil }
func (noopService) NotifyError(context.Context, error, string) error                 { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
