package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/saarthi/companion/backend/internal/config"
)

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature *float64
	maxTokens   *int
}

var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds a generator from the OpenAI part of cfg.
func NewOpenAIGenerator(cfg config.AIConfig, extra ...option.RequestOption) (*OpenAIGenerator, error) {
	if cfg.OpenAIAPIKey == "" || cfg.OpenAIModel == "" {
		return nil, errors.New("OPENAI_API_KEY and OPENAI_MODEL are required for the openai provider")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	opts = append(opts, extra...)

	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       cfg.OpenAIModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Generate sends prompt as a single user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Model:    openai.ChatModel(g.model),
	}
	if g.temperature != nil {
		params.Temperature = openai.Float(*g.temperature)
	}
	if g.maxTokens != nil {
		params.MaxTokens = openai.Int(int64(*g.maxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := resp.Choices[0].Message.Content
	log.Printf("[ai] generated response via %s, length=%d", g.model, len(content))
	return content, nil
}
