// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate calls the Claude API to phrase answer sections from
// evidence. The synthesizer treats it as optional: any failure here falls
// back to extractive summarization.
// Implements: prd012-synthesis (R3.3);
//
//	docs/ARCHITECTURE § Generator.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// systemPrompt constrains the model to the supplied evidence. The answer
// must be reproducible from the evidence alone.
const systemPrompt = `You are a research assistant writing one section of an evidence-backed answer.
Use ONLY the numbered evidence passages provided. Do not add facts, figures, or claims that are not present in the passages. If the passages do not answer the question, say so plainly.
Write a concise paragraph in plain prose. Do not mention passage numbers.`

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Client calls the Claude Messages API.
type Client struct {
	APIKey     string
	Model      string
	MaxRetries int
	HTTPClient *http.Client
}

// NewClient builds a client from generator configuration.
func NewClient(cfg types.GeneratorConfig) *Client {
	return &Client{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		MaxRetries: cfg.MaxRetries,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate produces prose for one answer section from the supporting
// evidence passages, retrying transient failures with exponential backoff.
func (c *Client) Generate(ctx context.Context, sectionPrompt string, supporting []string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("generator API key not configured")
	}

	prompt := buildPrompt(sectionPrompt, supporting)

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := c.call(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", c.MaxRetries+1, lastErr)
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}

// buildPrompt numbers the supporting passages under the section question.
func buildPrompt(sectionPrompt string, supporting []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nEvidence passages:\n", sectionPrompt)
	for i, s := range supporting {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, s)
	}
	return b.String()
}
