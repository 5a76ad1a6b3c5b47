package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventOperationCompleted, notifications.Payload{"operation": "convert"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if notifications.Enabled(&cfg) {
		t.Fatal("expected notifications disabled without a topic")
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "operation completed",
			event: notifications.EventOperationCompleted,
			payload: notifications.Payload{
				"operation": "generate_clip",
				"message":   "Successfully created X (Twitter) video: talk_X.mp4",
				"output":    "talk_X.mp4",
			},
			expectTitle:   "Reelforge - generate clip complete",
			expectMessage: "✅ Successfully created X (Twitter) video: talk_X.mp4\nFile: talk_X.mp4",
			expectTags:    "reelforge,generate_clip,completed",
		},
		{
			name:  "operation failed",
			event: notifications.EventOperationFailed,
			payload: notifications.Payload{
				"operation": "convert",
				"message":   "Failed to convert output.mkv",
				"error":     "conversion failed after re-encode",
			},
			expectTitle:    "Reelforge - convert failed",
			expectMessage:  "❌ Failed to convert output.mkv\nconversion failed after re-encode",
			expectTags:     "reelforge,convert,failed",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Reelforge - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "reelforge,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.OnSuccess = false
	cfg.Notifications.OnFailure = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{notifications.EventOperationCompleted, notifications.EventOperationFailed, "unknown"} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"operation": "convert"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("expected suppressed events to send nothing, got %d", calls.Load())
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}
