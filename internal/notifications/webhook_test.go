package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *map[string]string) {
	t.Helper()
	received := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func TestSend_NoWebhook(t *testing.T) {
	s := NewSender("", "TestApp")
	if s.Enabled() {
		t.Fatal("should not be enabled with empty URL")
	}
	if err := s.Send(context.Background(), "hello from test"); err != nil {
		t.Fatalf("console-only send should not fail: %v", err)
	}
}

func TestSend_SlackFormat(t *testing.T) {
	srv, received := captureServer(t, http.StatusOK)

	s := NewSender(srv.URL, "TestApp")
	if !s.Enabled() {
		t.Fatal("should be enabled")
	}
	if err := s.Send(context.Background(), "cache warmed: 12 symbols"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if (*received)["username"] != "TestApp" {
		t.Fatalf("username: got %s", (*received)["username"])
	}
	if !strings.Contains((*received)["text"], "cache warmed") {
		t.Fatalf("text: got %q", (*received)["text"])
	}
}

func TestSend_DiscordFormat(t *testing.T) {
	srv, received := captureServer(t, http.StatusNoContent)

	s := NewSender(srv.URL+"/discord/webhook", "StockBot")
	if err := s.Send(context.Background(), "mock fallback for TSLA"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if (*received)["content"] == "" {
		t.Fatal("content should not be empty for Discord")
	}
	if (*received)["username"] != "StockBot" {
		t.Fatalf("username: got %s", (*received)["username"])
	}
	if _, hasText := (*received)["text"]; hasText {
		t.Fatal("Discord payload should not have 'text' field")
	}
}

func TestSend_ClientErrorReported(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadRequest)

	s := NewSender(srv.URL, "TestApp")
	if err := s.Send(context.Background(), "bad payload"); err == nil {
		t.Fatal("expected error for HTTP 400")
	}
}

func TestSend_WebhookUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSender("http://localhost:1/bogus", "TestApp")
	if err := s.Send(ctx, "this will fail"); err == nil {
		t.Fatal("expected delivery error")
	}
}

func TestDefaultSenderName(t *testing.T) {
	s := NewSender("", "")
	if s.name != DefaultSender {
		t.Fatalf("expected default name, got %s", s.name)
	}
}
