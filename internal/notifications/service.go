package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/config"
)

const userAgent = "reelforge/0.1.0"

// Event names a notification-worthy pipeline milestone.
type Event string

const (
	EventOperationCompleted Event = "operation_completed"
	EventOperationFailed    Event = "operation_failed"
	EventTest               Event = "test"
)

// Payload carries event fields. Recognized keys: operation, message, output, error.
type Payload map[string]any

// Service publishes pipeline events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.OnSuccess,
		onFailure: cfg.Notifications.OnFailure,
	}
}

// Enabled reports whether cfg routes notifications anywhere.
func Enabled(cfg *config.Config) bool {
	return cfg != nil && strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
	onFailure bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	operation := payload.text("operation")
	label := strings.ReplaceAll(operation, "_", " ")
	switch event {
	case EventOperationCompleted:
		if !n.onSuccess {
			return message{}, false
		}
		body := "✅ " + payload.text("message")
		if output := payload.text("output"); output != "" {
			body += "\nFile: " + output
		}
		return message{
			title: fmt.Sprintf("Reelforge - %s complete", label),
			body:  body,
			tags:  []string{"reelforge", operation, "completed"},
		}, true
	case EventOperationFailed:
		if !n.onFailure {
			return message{}, false
		}
		body := "❌ " + payload.text("message")
		if detail := payload.text("error"); detail != "" && detail != payload.text("message") {
			body += "\n" + detail
		}
		return message{
			title:    fmt.Sprintf("Reelforge - %s failed", label),
			body:     body,
			tags:     []string{"reelforge", operation, "failed"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Reelforge - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"reelforge", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
