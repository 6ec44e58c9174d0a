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

// OpenAI talks to the chat completions API. Any OpenAI-compatible
// endpoint works via BaseURL.
type OpenAI struct {
	opts   Options
	client *http.Client
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(opts Options) *OpenAI {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com"
	}
	return &OpenAI{
		opts:   opts,
		client: &http.Client{Timeout: opts.HTTPTimeout},
	}
}

// Name returns the provider identifier.
func (p *OpenAI) Name() string { return "openai" }

// Query sends a text-only prompt.
func (p *OpenAI) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	messages := []map[string]interface{}{}
	if systemPrompt != "" {
		messages = append(messages, map[string]interface{}{
			"role":    "system",
			"content": systemPrompt,
		})
	}
	messages = append(messages, map[string]interface{}{
		"role":    "user",
		"content": prompt,
	})
	return p.chat(ctx, messages)
}

// QueryWithVision sends a prompt with an inline base64 PNG.
func (p *OpenAI) QueryWithVision(ctx context.Context, prompt, imageBase64, systemPrompt string) (string, error) {
	messages := []map[string]interface{}{}
	if systemPrompt != "" {
		messages = append(messages, map[string]interface{}{
			"role":    "system",
			"content": systemPrompt,
		})
	}
	messages = append(messages, map[string]interface{}{
		"role": "user",
		"content": []map[string]interface{}{
			{"type": "text", "text": prompt},
			{
				"type": "image_url",
				"image_url": map[string]interface{}{
					"url": "data:image/png;base64," + imageBase64,
				},
			},
		},
	})
	return p.chat(ctx, messages)
}

func (p *OpenAI) chat(ctx context.Context, messages []map[string]interface{}) (string, error) {
	body := map[string]interface{}{
		"model":       p.opts.Model,
		"temperature": p.opts.Temperature,
		"max_tokens":  p.opts.MaxTokens,
		"messages":    messages,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(p.opts.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.opts.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
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
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// errorMessage pulls a human-readable message out of a vendor error
// body, falling back to the raw payload.
func errorMessage(data []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return snippet(string(data))
}
