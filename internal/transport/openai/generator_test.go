package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyqa/internal/domain"
)

func chatServer(t *testing.T, handler func(body map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		status, resp := handler(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
}

func newTestGenerator(url string) *Generator {
	return NewGenerator(&GeneratorConfig{
		APIKey:    "test-key",
		BaseURL:   url,
		Model:     "gemini-2.5-flash",
		MaxTokens: 512,
		Logger:    zap.NewNop(),
	})
}

func TestGenerator_Generate(t *testing.T) {
	server := chatServer(t, func(body map[string]any) (int, string) {
		if body["model"] != "gemini-2.5-flash" {
			t.Errorf("unexpected model: %v", body["model"])
		}
		msgs, _ := body["messages"].([]any)
		if len(msgs) != 1 {
			t.Fatalf("expected a single message, got %d", len(msgs))
		}
		msg, _ := msgs[0].(map[string]any)
		if msg["role"] != "user" || msg["content"] != "PROMPT" {
			t.Errorf("unexpected message: %v", msg)
		}
		if body["max_tokens"] != float64(512) {
			t.Errorf("expected max_tokens=512, got %v", body["max_tokens"])
		}
		return http.StatusOK, `{
			"id": "c1", "object": "chat.completion", "model": "gemini-2.5-flash",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Kenya prioritizes agriculture [Source 1]."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 12, "total_tokens": 132}
		}`
	})
	defer server.Close()

	gen, err := newTestGenerator(server.URL).Generate(context.Background(), "PROMPT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Text != "Kenya prioritizes agriculture [Source 1]." {
		t.Errorf("unexpected text: %q", gen.Text)
	}
	if gen.TotalTokens != 132 || gen.PromptTokens != 120 || gen.CompletionTokens != 12 {
		t.Errorf("unexpected usage: %+v", gen)
	}
	if gen.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected model: %s", gen.Model)
	}
}

func TestGenerator_EmptyChoices(t *testing.T) {
	server := chatServer(t, func(_ map[string]any) (int, string) {
		return http.StatusOK, `{"id": "c1", "object": "chat.completion", "choices": []}`
	})
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), "PROMPT")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestGenerator_BlankContent(t *testing.T) {
	server := chatServer(t, func(_ map[string]any) (int, string) {
		return http.StatusOK, `{"choices": [{"index": 0, "message": {"role": "assistant", "content": "  "}, "finish_reason": "content_filter"}]}`
	})
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), "PROMPT")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if !strings.Contains(err.Error(), "content_filter") {
		t.Errorf("expected finish reason in error, got %v", err)
	}
}

func TestGenerator_APIError(t *testing.T) {
	server := chatServer(t, func(_ map[string]any) (int, string) {
		return http.StatusBadRequest, `{"error": {"message": "API key not valid", "type": "invalid_request_error"}}`
	})
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), "PROMPT")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if !strings.Contains(err.Error(), "API key not valid") {
		t.Errorf("expected API message in error, got %v", err)
	}
}

func TestGenerator_RateLimited(t *testing.T) {
	server := chatServer(t, func(_ map[string]any) (int, string) {
		return http.StatusTooManyRequests, `{"error": {"message": "Resource has been exhausted", "type": "rate_limit_error"}}`
	})
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), "PROMPT")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestGenerator_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestGenerator(server.URL).Generate(ctx, "PROMPT")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestNewGenerator_DefaultsToGemini(t *testing.T) {
	g := NewGenerator(&GeneratorConfig{Model: "gemini-2.5-flash"})
	if g.Model() != "gemini-2.5-flash" {
		t.Errorf("unexpected model: %s", g.Model())
	}
	if g.logger == nil {
		t.Error("expected nop logger fallback")
	}
}
