package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"quizforge/internal/config"
	"quizforge/internal/domain"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic requires max_tokens on every request.
const anthropicDefaultMaxTokens = 4096

// AnthropicModel implements domain.QuizModel using the Anthropic Messages API.
type AnthropicModel struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicModel(cfg config.LLMConfig) (*AnthropicModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicModel{client: &client, model: cfg.Model}, nil
}

func (m *AnthropicModel) Name() string {
	return "anthropic"
}

func (m *AnthropicModel) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	msg, err := m.client.Messages.New(ctx, m.buildParams(req))
	if err != nil {
		return "", domain.NewExternalServiceError(m.Name(), err).
			WithContext("status", anthropicStatus(err))
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", domain.NewMalformedResponseError(errors.New("no text content in Anthropic response"))
}

func (m *AnthropicModel) buildParams(req domain.CompletionRequest) anthropic.MessageNewParams {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Images)+1)
	for _, img := range req.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(pick(req.Model, m.model)),
		MaxTokens:   maxTokens,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	return params
}

func anthropicStatus(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

var _ domain.QuizModel = (*AnthropicModel)(nil)
