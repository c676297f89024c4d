package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ytsummarize/internal/services/retry"
)

func TestOpenAIComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["model"] != "gpt-4o-mini" {
			t.Fatalf("unexpected model %v", body["model"])
		}
		format, _ := body["response_format"].(map[string]any)
		if format["type"] != "json_schema" {
			t.Fatalf("expected schema response format, got %#v", body["response_format"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{
		Provider: ProviderOpenAI,
		APIKey:   "sk-test",
		BaseURL:  server.URL + "/v1",
		Model:    "gpt-4o-mini",
	}, WithRetryPolicy(fastPolicy()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := client.Complete(context.Background(), Request{
		SystemPrompt: "json only",
		UserPrompt:   "hi",
		Schema:       &Schema{Name: "health", Definition: json.RawMessage(`{"type":"object"}`)},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != `{"ok":true}` {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestOpenAIStatusMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"forbidden","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{Provider: ProviderOpenAI, APIKey: "sk", BaseURL: server.URL + "/v1", Model: "gpt-4o-mini"}, WithRetryPolicy(fastPolicy()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Complete(context.Background(), Request{UserPrompt: "hi"})
	var statusErr *retry.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 status error, got %v", err)
	}
}

func TestReasoningModel(t *testing.T) {
	for model, want := range map[string]bool{
		"gpt-5-mini":  true,
		"o3-mini":     true,
		"gpt-4o-mini": false,
		"gpt-4.1":     false,
	} {
		if got := reasoningModel(model); got != want {
			t.Errorf("reasoningModel(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestAnthropicComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "ak-test" {
			t.Fatalf("unexpected api key header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[{"type":"text","text":"## TL;DR"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{
		Provider:  ProviderAnthropic,
		APIKey:    "ak-test",
		BaseURL:   server.URL,
		Model:     "claude-3-5-haiku-latest",
		MaxTokens: 1024,
	}, WithRetryPolicy(fastPolicy()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.SupportsSchema() {
		t.Fatal("anthropic client should not claim schema support")
	}
	got, err := client.Complete(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "## TL;DR" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestGeminiComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"ok\":true}"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{
		Provider: ProviderGemini,
		APIKey:   "g-test",
		BaseURL:  server.URL,
		Model:    "gemini-2.5-flash",
	}, WithRetryPolicy(fastPolicy()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := HealthCheck(context.Background(), client, ""); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
