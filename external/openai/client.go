package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
)

var (
	// ErrNotConfigured indicates a missing API key or model name.
	ErrNotConfigured = crerr.New("openai: client is not configured")
	// ErrEmptyCompletion indicates the model answered with no choices.
	ErrEmptyCompletion = crerr.New("openai: model returned no choices")
)

const defaultTimeout = 60 * time.Second

type ClientConfig struct {
	APIKey  string
	BaseURL string // optional, for OpenAI-compatible endpoints
	Timeout time.Duration
	Logger  *logging.Logger
}

// Client adapts the chat completions API to the summarizer's JSON-only
// contract.
type Client struct {
	inner  *goopenai.Client
	logger *logging.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, crerr.Wrap(ErrNotConfigured, "api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transportCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		transportCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	transportCfg.HTTPClient = &http.Client{Timeout: timeout}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		inner:  goopenai.NewClientWithConfig(transportCfg),
		logger: logger,
	}, nil
}

// CompleteJSON asks one model for a single JSON object answer. The response
// content is returned verbatim; decoding is the caller's concern.
func (c *Client) CompleteJSON(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", crerr.Wrap(ErrNotConfigured, "model is required")
	}

	started := time.Now()
	resp, err := c.inner.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.2,
		N:           1,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion model=%s: %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", crerr.Wrapf(ErrEmptyCompletion, "model=%s", model)
	}

	c.logger.DebugContext(ctx, "chat completion finished",
		"model", model,
		"duration_ms", time.Since(started).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
