package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deadlineModel struct {
	hadDeadline bool
	err         error
}

func (d *deadlineModel) Name() string { return "fake" }

func (d *deadlineModel) Complete(ctx context.Context, _ domain.CompletionRequest) (string, error) {
	_, d.hadDeadline = ctx.Deadline()
	return "reply", d.err
}

func TestWithLogging_Timeout(t *testing.T) {
	inner := &deadlineModel{}
	m := WithLogging(inner, "gpt-4o-mini", time.Minute)

	out, err := m.Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "reply", out)
	assert.True(t, inner.hadDeadline)
	assert.Equal(t, "fake", m.Name())
}

func TestWithLogging_NoTimeout(t *testing.T) {
	inner := &deadlineModel{}
	m := WithLogging(inner, "gpt-4o-mini", 0)

	_, err := m.Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.False(t, inner.hadDeadline)
}

func TestWithLogging_PassesErrorThrough(t *testing.T) {
	cause := domain.NewExternalServiceError("fake", errors.New("boom"))
	m := WithLogging(&deadlineModel{err: cause}, "", 0)

	out, err := m.Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	assert.Empty(t, out)
	assert.Same(t, cause, err)
}
