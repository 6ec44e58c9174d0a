package llm

import (
	"fmt"
	"strings"
)

// Default model per provider.
var defaultModels = map[string]string{
	"openai":    "gpt-4o",
	"anthropic": "claude-3-5-sonnet-latest",
	"gemini":    "gemini-2.0-flash",
	"ollama":    "llama3.2-vision",
}

// New builds a provider from options. Unknown providers are an error.
func New(opts Options) (Provider, error) {
	opts.fill()

	provider := strings.ToLower(opts.Provider)
	if provider == "" {
		provider = "openai"
	}
	if opts.Model == "" {
		opts.Model = defaultModels[provider]
	}

	switch provider {
	case "openai":
		return NewOpenAI(opts), nil
	case "anthropic", "claude":
		return NewAnthropic(opts), nil
	case "gemini":
		return NewGemini(opts)
	case "ollama":
		return NewOllama(opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}
