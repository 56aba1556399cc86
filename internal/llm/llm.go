package llm

import (
	"context"
	"fmt"
	"strings"
)

// ChatModel answers a single rendered prompt.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// chat completion service provider
type Provider string

const (
	ProviderGroq      Provider = "groq"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1/"

const DefaultMaxTokens = 1024

type Options struct {
	Model     string
	BaseURL   string // overrides the provider endpoint
	MaxTokens int
}

func (o Options) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return DefaultMaxTokens
}

// ParseProvider maps a user supplied name to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGroq, ProviderOpenAI, ProviderGemini, ProviderAnthropic:
		return p, nil
	case "":
		return ProviderGroq, nil
	default:
		return "", fmt.Errorf("unsupported chat provider: %s", s)
	}
}

// DefaultModel is used when Options.Model is empty.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderGroq:
		return "llama-3.3-70b-versatile"
	case ProviderOpenAI:
		return "gpt-5-mini"
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderAnthropic:
		return "claude-haiku-4-5"
	default:
		return ""
	}
}

// creates ChatModel based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (ChatModel, error) {
	switch provider {
	case ProviderGroq:
		if opts.BaseURL == "" {
			opts.BaseURL = GroqBaseURL
		}
		if opts.Model == "" {
			opts.Model = DefaultModel(ProviderGroq)
		}
		return NewOpenAIChat(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIChat(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiChat(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicChat(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported chat provider: %s", provider)
	}
}
