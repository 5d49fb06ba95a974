package anthropic

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/botirk38/noteinsights/types"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", BaseURL: srv.URL + "/", Model: DefaultAnthropicModel})
	if err != nil {
		t.Fatalf("NewAnthropicProvider() error = %v", err)
	}
	return p
}

func TestAnthropicProvider_Complete(t *testing.T) {
	var got map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing version header")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant",
			"model": "claude-3-5-sonnet-latest",
			"content": [{"type": "text", "text": "insight one"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 120, "output_tokens": 30}
		}`)
	})

	c, err := p.Complete(t.Context(), types.CompletionRequest{System: "be brief", Prompt: "notes", MaxTokens: 100})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if c.Text != "insight one" {
		t.Errorf("Text = %q", c.Text)
	}
	if c.Usage != (types.Usage{InputTokens: 120, OutputTokens: 30, Requests: 1}) {
		t.Errorf("Usage = %+v", c.Usage)
	}
	if got["max_tokens"] != float64(100) {
		t.Errorf("max_tokens = %v, want 100", got["max_tokens"])
	}
	if got["model"] != DefaultAnthropicModel {
		t.Errorf("model = %v", got["model"])
	}
	if _, ok := got["system"]; !ok {
		t.Error("system prompt was not sent")
	}
}

func TestAnthropicProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantFatal bool
	}{
		{name: "invalid key", status: http.StatusUnauthorized, wantFatal: true},
		{name: "malformed request", status: http.StatusBadRequest, wantFatal: true},
		{name: "rate limited", status: http.StatusTooManyRequests, wantFatal: false},
		{name: "server error", status: http.StatusInternalServerError, wantFatal: false},
		{name: "overloaded", status: 529, wantFatal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"nope"}}`)
			})

			_, err := p.Complete(t.Context(), types.CompletionRequest{Prompt: "x"})
			if err == nil {
				t.Fatal("expected an error")
			}
			if types.IsFatal(err) != tt.wantFatal {
				t.Errorf("IsFatal() = %v, want %v (err: %v)", types.IsFatal(err), tt.wantFatal, err)
			}
			if !tt.wantFatal && !types.IsTransient(err) {
				t.Errorf("expected a transient error, got %v", err)
			}
			if calls != 1 {
				t.Errorf("SDK retried: %d calls", calls)
			}
		})
	}
}

func TestAnthropicProvider_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewAnthropicProvider(AnthropicConfig{}); err == nil {
		t.Fatal("expected an error without an API key")
	}
}

func TestAnthropicProvider_GetMaxTokens(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		{model: "claude-3-5-sonnet-latest", expected: 8192},
		{model: "claude-3-opus-latest", expected: 4096},
		{model: "unknown-model", expected: 8192},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p := &AnthropicProvider{model: tt.model}
			if got := p.GetMaxTokens(); got != tt.expected {
				t.Errorf("GetMaxTokens() = %d, want %d", got, tt.expected)
			}
		})
	}
}
