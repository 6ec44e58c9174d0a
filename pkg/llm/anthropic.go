package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

// Anthropic talks to the Messages API.
type Anthropic struct {
	opts   Options
	client *http.Client
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(opts Options) *Anthropic {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.anthropic.com"
	}
	return &Anthropic{
		opts:   opts,
		client: &http.Client{Timeout: opts.HTTPTimeout},
	}
}

// Name returns the provider identifier.
func (p *Anthropic) Name() string { return "anthropic" }

// Query sends a text-only prompt.
func (p *Anthropic) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	content := []map[string]interface{}{
		{"type": "text", "text": prompt},
	}
	return p.messages(ctx, content, systemPrompt)
}

// QueryWithVision sends a prompt with an inline base64 PNG. The image
// block precedes the text block per vendor guidance.
func (p *Anthropic) QueryWithVision(ctx context.Context, prompt, imageBase64, systemPrompt string) (string, error) {
	content := []map[string]interface{}{
		{
			"type": "image",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": "image/png",
				"data":       imageBase64,
			},
		},
		{"type": "text", "text": prompt},
	}
	return p.messages(ctx, content, systemPrompt)
}

func (p *Anthropic) messages(ctx context.Context, content []map[string]interface{}, systemPrompt string) (string, error) {
	body := map[string]interface{}{
		"model":       p.opts.Model,
		"max_tokens":  p.opts.MaxTokens,
		"temperature": p.opts.Temperature,
		"messages": []map[string]interface{}{
			{"role": "user", "content": content},
		},
	}
	if systemPrompt != "" {
		body["system"] = systemPrompt
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(p.opts.BaseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.opts.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic response has no text content")
	}
	return sb.String(), nil
}
