// Package llm provides the uniform model capability consumed by the
// decision engine: text and vision queries plus the tolerant JSON
// response parser.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider is the capability the engine depends on. Implementations wrap
// one vendor's text and multimodal APIs.
type Provider interface {
	// Name returns the provider identifier (openai, anthropic, ...).
	Name() string

	// Query sends a text-only prompt and returns the raw response text.
	Query(ctx context.Context, prompt, systemPrompt string) (string, error)

	// QueryWithVision sends a prompt plus a base64 PNG image.
	QueryWithVision(ctx context.Context, prompt, imageBase64, systemPrompt string) (string, error)
}

// Options configures a provider at construction time.
type Options struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	HTTPTimeout time.Duration
}

// Defaults sized for short JSON object responses.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
	defaultHTTPTimeout = 120 * time.Second
)

func (o *Options) fill() {
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.HTTPTimeout == 0 {
		o.HTTPTimeout = defaultHTTPTimeout
	}
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}
