package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hookreel/internal/config"
)

const userAgent = "hookreel/0.1.0"

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyJobCompleted(ctx context.Context, label, artifactURL string) error
	NotifyJobFailed(ctx context.Context, label string, err error) error
	NotifyPublished(ctx context.Context, label, catalogID string) error
	NotifyGenerationPartial(ctx context.Context, succeeded, failed int) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a noop when no topic is configured.
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

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, label, artifactURL string) error {
	message := fmt.Sprintf("✅ Video ready: %s", displayLabel(label))
	if artifactURL = strings.TrimSpace(artifactURL); artifactURL != "" {
		message = fmt.Sprintf("%s\n%s", message, artifactURL)
	}
	return n.send(ctx, payload{
		title:    "hookreel - Complete",
		message:  message,
		tags:     []string{"hookreel", "compose", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, label string, err error) error {
	var builder strings.Builder
	builder.WriteString("❌ Composition failed for ")
	builder.WriteString(displayLabel(label))
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "hookreel - Failed",
		message:  builder.String(),
		tags:     []string{"hookreel", "compose", "error"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyPublished(ctx context.Context, label, catalogID string) error {
	return n.send(ctx, payload{
		title:   "hookreel - Published",
		message: fmt.Sprintf("📤 Published %s as catalog record %s", displayLabel(label), strings.TrimSpace(catalogID)),
		tags:    []string{"hookreel", "storage", "published"},
	})
}

func (n *ntfyService) NotifyGenerationPartial(ctx context.Context, succeeded, failed int) error {
	return n.send(ctx, payload{
		title:   "hookreel - Generation Incomplete",
		message: fmt.Sprintf("Generated %d of %d variants; %d requests failed", succeeded, succeeded+failed, failed),
		tags:    []string{"hookreel", "generate", "partial"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "hookreel - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"hookreel", "test"},
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

func displayLabel(label string) string {
	if label = strings.TrimSpace(label); label == "" {
		return "untitled composition"
	}
	return label
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, error) error     { return nil }
func (noopService) NotifyPublished(context.Context, string, string) error    { return nil }
func (noopService) NotifyGenerationPartial(context.Context, int, int) error  { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
