package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Ollama talks to a local ollama daemon. Vision queries require a
// multimodal model such as llama3.2-vision.
type Ollama struct {
	opts   Options
	client *api.Client
}

// NewOllama creates an Ollama provider.
func NewOllama(opts Options) (*Ollama, error) {
	base := opts.BaseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url %q: %w", base, err)
	}
	client := api.NewClient(u, &http.Client{Timeout: opts.HTTPTimeout})
	return &Ollama{opts: opts, client: client}, nil
}

// Name returns the provider identifier.
func (p *Ollama) Name() string { return "ollama" }

// Query sends a text-only prompt.
func (p *Ollama) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return p.chat(ctx, prompt, systemPrompt, nil)
}

// QueryWithVision sends a prompt with an inline PNG.
func (p *Ollama) QueryWithVision(ctx context.Context, prompt, imageBase64, systemPrompt string) (string, error) {
	img, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return p.chat(ctx, prompt, systemPrompt, []api.ImageData{img})
}

func (p *Ollama) chat(ctx context.Context, prompt, systemPrompt string, images []api.ImageData) (string, error) {
	var messages []api.Message
	if systemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, api.Message{
		Role:    "user",
		Content: prompt,
		Images:  images,
	})

	stream := false
	req := &api.ChatRequest{
		Model:    p.opts.Model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": p.opts.Temperature,
			"num_predict": p.opts.MaxTokens,
		},
	}

	var sb strings.Builder
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("ollama response has no content")
	}
	return sb.String(), nil
}
