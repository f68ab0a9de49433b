package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/saarthi/companion/backend/internal/config"
)

var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Generator turns an assembled prompt into completion text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service runs prompts through an eino chain ending in a chat model.
type Service struct {
	chain compose.Runnable[string, *schema.Message]
}

var _ Generator = (*Service)(nil)

// NewService compiles the prompt -> chat model chain.
func NewService(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	chain := compose.NewChain[string, *schema.Message]()
	chain.AppendLambda(compose.InvokableLambda(func(_ context.Context, prompt string) ([]*schema.Message, error) {
		return []*schema.Message{schema.UserMessage(prompt)}, nil
	}))
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return &Service{chain: runnable}, nil
}

// Generate invokes the chain once. Errors are returned unchanged apart from wrapping.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := s.chain.Invoke(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", ErrEmptyCompletion
	}

	log.Printf("[ai] generated response, length=%d", len(response.Content))
	return response.Content, nil
}

// NewGenerator picks the backend named by cfg.Provider.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		gen, err := NewOpenAIGenerator(cfg)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case config.ProviderArk, "":
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		svc, err := NewService(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
