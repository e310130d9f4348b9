// Package assistant implements the model-backed pipeline collaborators on
// top of any OpenAI-compatible chat completion endpoint. Discovery runs on
// a search-capable model; hydration, enrichment, rating, and calibration
// share the general model.
package assistant

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"scout/internal/config"
	"scout/internal/logging"
	"scout/internal/services"
)

// Client provides the AI stages with a shared connection to the model
// endpoint.
type Client struct {
	api            *openai.Client
	discoveryModel string
	model          string
	timeout        time.Duration
	logger         *slog.Logger
}

// New builds a Client from the LLM section of the configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg.LLM.APIKey == "" && cfg.LLM.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "assistant", "new", "llm.api_key is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	clientConfig := openai.DefaultConfig(cfg.LLM.APIKey)
	if cfg.LLM.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.LLM.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:            openai.NewClientWithConfig(clientConfig),
		discoveryModel: cfg.LLM.DiscoveryModel,
		model:          cfg.LLM.Model,
		timeout:        timeout,
		logger:         logging.NewComponentLogger(logger, "assistant"),
	}, nil
}

// complete sends one chat completion and returns the first choice's text.
func (c *Client) complete(ctx context.Context, model, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "assistant", "chat_completion", "model "+model, err)
	}
	if len(resp.Choices) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "assistant", "chat_completion", "model returned no choices", nil)
	}

	c.logger.Debug("completion finished",
		logging.String("model", model),
		logging.Int("prompt_tokens", resp.Usage.PromptTokens),
		logging.Int("completion_tokens", resp.Usage.CompletionTokens),
		logging.Duration("elapsed", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}
