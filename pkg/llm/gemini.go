package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/genai"
)

// Gemini wraps the official genai SDK.
type Gemini struct {
	opts   Options
	client *genai.Client
}

// NewGemini creates a Gemini provider. The SDK validates credentials
// lazily, so construction does not hit the network.
func NewGemini(opts Options) (*Gemini, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{opts: opts, client: client}, nil
}

// Name returns the provider identifier.
func (p *Gemini) Name() string { return "gemini" }

// Query sends a text-only prompt.
func (p *Gemini) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	return p.generate(ctx, parts, systemPrompt)
}

// QueryWithVision sends a prompt with an inline PNG.
func (p *Gemini) QueryWithVision(ctx context.Context, prompt, imageBase64, systemPrompt string) (string, error) {
	img, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode screenshot: %w", err)
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(img, "image/png"),
		genai.NewPartFromText(prompt),
	}
	return p.generate(ctx, parts, systemPrompt)
}

func (p *Gemini) generate(ctx context.Context, parts []*genai.Part, systemPrompt string) (string, error) {
	contents := []*genai.Content{
		{Role: genai.RoleUser, Parts: parts},
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(p.opts.Temperature)),
		MaxOutputTokens: int32(p.opts.MaxTokens),
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.opts.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini response has no text content")
	}
	return text, nil
}
