package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/expenselens/receipt-engine/internal/llm"
)

func (c *Client) Name() string         { return "openai/" + c.cfg.Model }
func (c *Client) CostPerCall() float64 { return c.cfg.CostPerCall }

// Complete implements llm.Collaborator over chat/completions. An image, when
// provided, rides along as a data URL content part.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	start := time.Now()

	c.logger.Info("llm.complete.start",
		"backend", c.Name(),
		"temp", c.cfg.Temperature,
		"prompt_len", len(req.Prompt),
		"has_image", len(req.ImagePNG) > 0,
	)

	var userContent any = req.Prompt
	if len(req.ImagePNG) > 0 {
		dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(req.ImagePNG)
		userContent = []map[string]any{
			{"type": "text", "text": req.Prompt},
			{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
		}
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "user", "content": userContent},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.complete.http_error",
			"backend", c.Name(), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.CompletionResult{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.complete.decode_error",
			"backend", c.Name(), "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.CompletionResult{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return llm.CompletionResult{}, fmt.Errorf("no choices in openai response")
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	c.logger.Info("llm.complete.ok",
		"backend", c.Name(),
		"reply_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.CompletionResult{Text: content, Cost: c.cfg.CostPerCall}, nil
}
