// internal/clients/gemini/gemini.go
package gemini

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"careescapes-workers/internal/common/errors"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client is the Gemini-backed completer. It offers the same two calls as the
// gateway client so either can be plugged into the classifier and the FAQ answerer.
type Client struct {
	config Config
	client *genai.Client
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, stderrors.New("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{config: cfg, client: client}, nil
}

// ClassifyText runs the utterance with prompt as the system instruction.
func (c *Client) ClassifyText(ctx context.Context, prompt, utterance string) (string, error) {
	model := c.client.GenerativeModel(c.config.Model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt)}}
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	if c.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.config.MaxTokens))
	}
	return c.generate(ctx, model, utterance)
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(float32(c.config.Temperature))
	if c.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.config.MaxTokens))
	}
	return c.generate(ctx, model, prompt)
}

func (c *Client) generate(ctx context.Context, model *genai.GenerativeModel, text string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	res, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.NewGenAITimeoutError()
		}
		return "", errors.NewGenAIRequestFailedError(err)
	}
	return responseText(res)
}

// responseText concatenates the text parts of the first candidate.
func responseText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", errors.NewGenAIRequestFailedError(stderrors.New("no response from Gemini API"))
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.NewGenAIRequestFailedError(stderrors.New("unexpected response format from Gemini API"))
	}
	return sb.String(), nil
}

func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
