// Package gemini implements the extraction service's Generator contract on
// top of the Google Generative AI API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

type Config struct {
	APIKey      string
	Model       string  // default "gemini-1.5-flash-latest"
	Temperature float32 // low by default for extraction stability
	Timeout     time.Duration
}

type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	cfg    Config
	logger *slog.Logger
}

// NewClient builds a Gemini-backed generator. An empty API key is rejected
// here; callers decide beforehand whether a provider is configured at all.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)

	return &Client{client: client, model: model, cfg: cfg, logger: logger}, nil
}

// Generate sends the prompt and returns the concatenated text parts of the
// first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("gemini.generate.start", "req_id", rid, "model", c.cfg.Model, "prompt_len", len(prompt))

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error("gemini.generate.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		c.logger.Warn("gemini.generate.empty", "req_id", rid)
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	c.logger.Info("gemini.generate.ok", "req_id", rid, "response_len", sb.Len(),
		"elapsed_ms", time.Since(start).Milliseconds())
	return sb.String(), nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.client.Close()
}
