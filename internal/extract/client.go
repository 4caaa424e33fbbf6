package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/oghuzrustamli/iranisrael/internal/model"
)

// Client calls the inference endpoint to extract structured attack facts
// from free news text.
type Client struct {
	api *openai.Client
	cfg model.ExtractConfig
}

// NewClient creates an extraction client from configuration.
func NewClient(cfg model.ExtractConfig) (*Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("extraction API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}

	return &Client{
		api: openai.NewClientWithConfig(clientConfig),
		cfg: cfg,
	}, nil
}

// Extract runs one inference call over the article text. It returns
// (nil, nil) when the reply cannot be parsed as the expected JSON shape;
// that is "no extraction", not an error. HTTP 429 surfaces as
// *RateLimitError, any other failure as *RequestError.
func (c *Client) Extract(ctx context.Context, text string) (*Result, error) {
	timeout := c.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(text),
			},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0.1, // Deterministic, factual output
		TopP:        1,
	}

	resp, err := c.api.CreateChatCompletion(ctxWithTimeout, req)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, nil
	}

	raw := stripFences(resp.Choices[0].Message.Content)

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, nil
	}

	result.normalize()
	return &result, nil
}

// stripFences removes a markdown code-fence wrapper from a model reply.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
