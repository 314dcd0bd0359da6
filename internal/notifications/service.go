package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"torrup/internal/config"
)

const userAgent = "torrup/0.1.0"

// Service defines the notification surface exposed to daemon components.
type Service interface {
	NotifyUploadComplete(ctx context.Context, releaseName string, torrentID int64) error
	NotifyUploadFailed(ctx context.Context, releaseName, message string) error
	NotifyActivityCritical(ctx context.Context, projected, minimum int) error
	NotifyDaemonStarted(ctx context.Context) error
	NotifyDaemonStopped(ctx context.Context) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewNop returns a service that discards every notification.
func NewNop() Service {
	return noopService{}
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

func (n *ntfyService) NotifyUploadComplete(ctx context.Context, releaseName string, torrentID int64) error {
	data := payload{
		title:   "torrup - Upload Complete",
		message: fmt.Sprintf("Uploaded %s (id %d)", strings.TrimSpace(releaseName), torrentID),
		tags:    []string{"torrup", "upload", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadFailed(ctx context.Context, releaseName, message string) error {
	data := payload{
		title:    "torrup - Upload Failed",
		message:  fmt.Sprintf("Failed %s: %s", strings.TrimSpace(releaseName), strings.TrimSpace(message)),
		tags:     []string{"torrup", "upload", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyActivityCritical(ctx context.Context, projected, minimum int) error {
	data := payload{
		title: "torrup - Activity Warning",
		message: fmt.Sprintf(
			"Projected uploads are below the monthly minimum (%d of %d). Check your queue.",
			projected, minimum,
		),
		tags:     []string{"torrup", "activity", "warning"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDaemonStarted(ctx context.Context) error {
	data := payload{
		title:   "torrup - Started",
		message: "Daemon started",
		tags:    []string{"torrup", "daemon"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDaemonStopped(ctx context.Context) error {
	data := payload{
		title:   "torrup - Stopped",
		message: "Daemon stopped",
		tags:    []string{"torrup", "daemon"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "torrup - Test",
		message:  "Notification system test",
		tags:     []string{"torrup", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func (noopService) NotifyUploadComplete(context.Context, string, int64) error { return nil }
func (noopService) NotifyUploadFailed(context.Context, string, string) error  { return nil }
func (noopService) NotifyActivityCritical(context.Context, int, int) error    { return nil }
func (noopService) NotifyDaemonStarted(context.Context) error                 { return nil }
func (noopService) NotifyDaemonStopped(context.Context) error                 { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
