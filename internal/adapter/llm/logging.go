package llm

import (
	"context"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/logger"

	"go.uber.org/zap"
)

// loggingModel records every completion with its latency and bounds it by timeout.
type loggingModel struct {
	inner        domain.QuizModel
	defaultModel string
	timeout      time.Duration
}

// WithLogging wraps a QuizModel. A zero timeout leaves the call unbounded.
func WithLogging(m domain.QuizModel, defaultModel string, timeout time.Duration) domain.QuizModel {
	return &loggingModel{inner: m, defaultModel: defaultModel, timeout: timeout}
}

func (l *loggingModel) Name() string {
	return l.inner.Name()
}

func (l *loggingModel) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := l.inner.Complete(ctx, req)

	fields := []zap.Field{
		zap.String("provider", l.inner.Name()),
		zap.String("model", pick(req.Model, l.defaultModel)),
		zap.Int("images", len(req.Images)),
		zap.Int("prompt_chars", len(req.Prompt)),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		logger.Get().Error("LLM completion failed", append(fields, zap.Error(err))...)
		return "", err
	}
	logger.Get().Info("LLM completion finished", append(fields, zap.Int("response_chars", len(out)))...)
	return out, nil
}
