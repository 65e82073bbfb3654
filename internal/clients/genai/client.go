// internal/clients/genai/client.go
package genai

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"careescapes-workers/internal/common/errors"
	httpclient "careescapes-workers/internal/common/http"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// Client calls the GenAI gateway's completion endpoints.
type Client struct {
	config Config
	http   *httpclient.Client
}

func New(cfg Config) *Client {
	hc := httpclient.NewClient(0)
	if cfg.APIKey != "" {
		hc = hc.WithHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{config: cfg, http: hc}
}

type completionRequest struct {
	Prompt      string  `json:"prompt"`
	Input       string  `json:"input,omitempty"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Text string `json:"text"`
}

// ClassifyText sends the classification prompt with the utterance as input.
func (c *Client) ClassifyText(ctx context.Context, prompt, utterance string) (string, error) {
	return c.call(ctx, "/api/ai/complete", completionRequest{
		Prompt:      prompt,
		Input:       utterance,
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: 0,
	})
}

// Generate returns free text for an already assembled prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, "/api/ai/generate", completionRequest{
		Prompt:      prompt,
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
}

func (c *Client) call(ctx context.Context, path string, body completionRequest) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", errors.NewGenAITimeoutError()
			}
		}

		var out completionResponse
		lastErr = c.http.DoJSON(ctx, http.MethodPost, c.config.BaseURL+path, body, &out)
		if lastErr == nil {
			return out.Text, nil
		}
		if ctx.Err() != nil {
			return "", errors.NewGenAITimeoutError()
		}
		if !retryable(lastErr) {
			break
		}
	}
	return "", errors.NewGenAIRequestFailedError(lastErr)
}

// retryable reports whether another attempt may succeed. Client errors are final.
func retryable(err error) bool {
	var statusErr *httpclient.StatusError
	if stderrors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
