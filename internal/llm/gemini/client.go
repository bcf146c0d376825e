package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/expenselens/receipt-engine/internal/llm"
)

// Config for the Gemini backend.
type Config struct {
	APIKey      string
	Model       string  // default gemini-2.0-flash
	CostPerCall float64 // metered estimate, default 0.02
}

// Client implements llm.Collaborator over Google Gemini vision models.
type Client struct {
	cfg    Config
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.CostPerCall <= 0 {
		cfg.CostPerCall = 0.02
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Client{
		cfg:    cfg,
		client: client,
		model:  client.GenerativeModel(cfg.Model),
		logger: logger,
	}, nil
}

func (c *Client) Name() string         { return "gemini/" + c.cfg.Model }
func (c *Client) CostPerCall() float64 { return c.cfg.CostPerCall }

func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	start := time.Now()
	c.logger.Info("llm.complete.start",
		"backend", c.Name(),
		"prompt_len", len(req.Prompt),
		"has_image", len(req.ImagePNG) > 0,
	)

	parts := make([]genai.Part, 0, 2)
	if len(req.ImagePNG) > 0 {
		parts = append(parts, genai.ImageData("png", req.ImagePNG))
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		c.logger.Error("llm.complete.error",
			"backend", c.Name(), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.CompletionResult{}, fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return llm.CompletionResult{}, fmt.Errorf("no response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	c.logger.Info("llm.complete.ok",
		"backend", c.Name(),
		"reply_len", sb.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.CompletionResult{Text: sb.String(), Cost: c.cfg.CostPerCall}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
