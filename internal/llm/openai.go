package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements ChatModel using OpenAI Chat Completions. Groq is served by the
// same client pointed at its compatible endpoint.
type OpenAIChat struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAIChat(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAIChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(reqOpts...)

	model := opts.Model
	if model == "" {
		model = DefaultModel(ProviderOpenAI)
	}

	return &OpenAIChat{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (c *OpenAIChat) Model() string {
	return c.model
}

func (c *OpenAIChat) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := c.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model:               c.model,
			MaxCompletionTokens: openai.Int(int64(c.options.maxTokens())),
		},
	)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.model)
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("no text in response from %s", c.model)
	}
	return text, nil
}
