package llm

import (
	"context"
	"errors"
	"fmt"

	"quizforge/internal/config"
	"quizforge/internal/domain"

	"google.golang.org/genai"
)

// GeminiModel implements domain.QuizModel using the Google Gemini SDK.
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, cfg config.LLMConfig) (*GeminiModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiModel{client: client, model: cfg.Model}, nil
}

func (m *GeminiModel) Name() string {
	return "gemini"
}

func (m *GeminiModel) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	contents, cfg := buildGeminiRequest(req)

	result, err := m.client.Models.GenerateContent(ctx, pick(req.Model, m.model), contents, cfg)
	if err != nil {
		return "", domain.NewExternalServiceError(m.Name(), err).
			WithContext("status", geminiStatus(err))
	}
	text := result.Text()
	if text == "" {
		return "", domain.NewMalformedResponseError(errors.New("no text in Gemini response"))
	}
	return text, nil
}

func buildGeminiRequest(req domain.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := &genai.GenerateContentConfig{}
	temp := float32(req.Temperature)
	cfg.Temperature = &temp
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSONOutput {
		cfg.ResponseMIMEType = "application/json"
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

var _ domain.QuizModel = (*GeminiModel)(nil)
