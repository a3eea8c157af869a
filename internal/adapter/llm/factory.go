package llm

import (
	"context"
	"fmt"

	"quizforge/internal/config"
	"quizforge/internal/domain"
)

// NewQuizModel creates the configured backend wrapped with timeout and logging.
func NewQuizModel(ctx context.Context, cfg config.LLMConfig) (domain.QuizModel, error) {
	var (
		base domain.QuizModel
		err  error
	)

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIModel(cfg)
	case "langchain":
		base, err = NewLangchainOpenAIModel(cfg)
	case "ollama":
		base, err = NewOllamaModel(cfg)
	case "gemini":
		base, err = NewGeminiModel(ctx, cfg)
	case "anthropic":
		base, err = NewAnthropicModel(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithLogging(base, cfg.Model, cfg.Timeout), nil
}
