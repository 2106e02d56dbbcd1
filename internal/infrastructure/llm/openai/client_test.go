package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/core/ports"
	"github.com/kirillkom/lesson-portal/internal/infrastructure/resilience"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"summary\":\"ok\"}"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
}`

func TestCompleteSendsAttachmentAsFilePart(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client := New(Config{APIKey: "sk-test", BaseURL: server.URL}, nil)
	out, err := client.Complete(context.Background(), ports.CompletionRequest{
		System:      "system prompt",
		Prompt:      "analyze",
		Attachment:  &ports.Attachment{Filename: "a.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.4")},
		Temperature: 0.3,
		MaxTokens:   4000,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out.Text != `{"summary":"ok"}` {
		t.Fatalf("unexpected text %q", out.Text)
	}
	if out.Usage.PromptTokens != 12 || out.Usage.CompletionTokens != 4 || out.Usage.TotalTokens != 16 {
		t.Fatalf("unexpected usage %+v", out.Usage)
	}

	if payload["model"] != DefaultModel {
		t.Fatalf("unexpected model %v", payload["model"])
	}
	if payload["max_tokens"] != float64(4000) {
		t.Fatalf("unexpected max_tokens %v", payload["max_tokens"])
	}
	raw, _ := json.Marshal(payload["messages"])
	body := string(raw)
	for _, want := range []string{`"role":"system"`, `"type":"file"`, "data:application/pdf;base64,JVBERi0xLjQ=", `"filename":"a.pdf"`, `"text":"analyze"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("messages missing %s: %s", want, body)
		}
	}
}

func TestCompletePlainQuestion(t *testing.T) {
	var messages []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages []map[string]any `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		messages = payload.Messages
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client := New(Config{APIKey: "sk-test", BaseURL: server.URL + "/"}, nil)
	if _, err := client.Complete(context.Background(), ports.CompletionRequest{System: "sys", Prompt: "question?", Temperature: 0.7, MaxTokens: 800}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(messages) != 2 || messages[1]["content"] != "question?" {
		t.Fatalf("unexpected messages %+v", messages)
	}
}

func TestCompleteWithoutKeyIsConfigurationError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL}, nil)
	if err := client.Ready(); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error from Ready(), got %v", err)
	}
	_, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "x"})
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestCompleteUpstreamErrorOpensBreaker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})
	client := New(Config{APIKey: "sk-test", BaseURL: server.URL}, exec)

	for i := 0; i < 3; i++ {
		_, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "x"})
		if !domain.IsKind(err, domain.ErrUpstream) {
			t.Fatalf("iteration %d: expected upstream error, got %v", i, err)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("expected breaker to stop the third call, got %d hits", hits.Load())
	}
}
