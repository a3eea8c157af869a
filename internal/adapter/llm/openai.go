package llm

import (
	"context"
	"errors"
	"fmt"

	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/util"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIModel implements domain.QuizModel on the chat completions API.
// BaseURL makes it usable against any OpenAI-compatible server.
type OpenAIModel struct {
	client   *openai.Client
	model    string
	jsonMode bool
}

func NewOpenAIModel(cfg config.LLMConfig) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIModel{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		jsonMode: cfg.JSONMode,
	}, nil
}

func (m *OpenAIModel) Name() string {
	return "openai"
}

func (m *OpenAIModel) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:               pick(req.Model, m.model),
		Messages:            buildOpenAIMessages(req),
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.JSONOutput && m.jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := m.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", domain.NewExternalServiceError(m.Name(), err).
			WithContext("status", openAIStatus(err))
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewMalformedResponseError(errors.New("no choices in completion"))
	}
	return resp.Choices[0].Message.Content, nil
}

func buildOpenAIMessages(req domain.CompletionRequest) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	if len(req.Images) == 0 {
		return append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		})
	}

	// Content and MultiContent are mutually exclusive.
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    util.DataURI(img.MIMEType, img.Data),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	})
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// pick returns the per-request override when set.
func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

var _ domain.QuizModel = (*OpenAIModel)(nil)
