package openai

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
)

const completionBody = `{
  "id": "chatcmpl-test",
  "object": "chat.completion",
  "created": 1755648600,
  "model": "gpt-4o",
  "choices": [
    {
      "index": 0,
      "message": {
        "role": "assistant",
        "content": "{\"company_name_en\":\"Example Co\",\"summary\":\"Example Co filed its semi-annual report.\"}"
      },
      "finish_reason": "stop"
    }
  ],
  "usage": {"prompt_tokens": 42, "completion_tokens": 21, "total_tokens": 63}
}`

func TestCompleteJSON_ReturnsModelContent(t *testing.T) {
	var gotPath, gotAuth string
	var gotRequest map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(body, &gotRequest); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1",
		Logger:  logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	content, err := client.CompleteJSON(t.Context(), "gpt-4o", "Answer with JSON.", "Summarize the filing.")
	if err != nil {
		t.Fatalf("complete json failed: %v", err)
	}

	if !strings.Contains(content, `"company_name_en":"Example Co"`) {
		t.Fatalf("unexpected content: %s", content)
	}
	if gotPath != "/v1/chat/completions" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected authorization header: %s", gotAuth)
	}
	if gotRequest["model"] != "gpt-4o" {
		t.Fatalf("unexpected model in request: %v", gotRequest["model"])
	}
	format, _ := gotRequest["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", gotRequest["response_format"])
	}
	messages, _ := gotRequest["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %v", gotRequest["messages"])
	}
}

func TestCompleteJSON_EmptyChoicesFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-test","object":"chat.completion","choices":[],"usage":{}}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1",
		Logger:  logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	_, err = client.CompleteJSON(t.Context(), "gpt-4o", "system", "user")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCompleteJSON_RequiresModel(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "sk-test", Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if _, err := client.CompleteJSON(t.Context(), "  ", "system", "user"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
