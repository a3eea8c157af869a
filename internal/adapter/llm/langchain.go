package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/util"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangchainModel implements domain.QuizModel on top of any langchaingo llms.Model.
type LangchainModel struct {
	llm  llms.Model
	name string
	// inlineImages sends images as binary parts instead of data URIs.
	inlineImages bool
	jsonMode     bool
}

// NewLangchainModel wraps an existing llms.Model. jsonMode mirrors llm.json_mode.
func NewLangchainModel(llm llms.Model, name string, inlineImages, jsonMode bool) *LangchainModel {
	return &LangchainModel{llm: llm, name: name, inlineImages: inlineImages, jsonMode: jsonMode}
}

// NewLangchainOpenAIModel talks to an OpenAI-compatible API through langchaingo.
func NewLangchainOpenAIModel(cfg config.LLMConfig) (*LangchainModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("langchain openai API key is required")
	}
	opts := []lcopenai.Option{
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI client: %w", err)
	}
	return NewLangchainModel(llm, "langchain", false, cfg.JSONMode), nil
}

// NewOllamaModel talks to a local Ollama server. No API key is needed.
func NewOllamaModel(cfg config.LLMConfig) (*LangchainModel, error) {
	serverURL := cfg.BaseURL
	if serverURL == "" {
		serverURL = "http://localhost:11434"
	}
	opts := []ollama.Option{
		ollama.WithServerURL(serverURL),
		ollama.WithModel(cfg.Model),
		ollama.WithHTTPClient(&http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
			},
		}),
	}
	if cfg.JSONMode {
		opts = append(opts, ollama.WithFormat("json"))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return NewLangchainModel(llm, "ollama", true, cfg.JSONMode), nil
}

func (m *LangchainModel) Name() string {
	return m.name
}

func (m *LangchainModel) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	resp, err := m.llm.GenerateContent(ctx, m.buildMessages(req), callOptions(req, m.jsonMode)...)
	if err != nil {
		return "", domain.NewExternalServiceError(m.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewMalformedResponseError(errors.New("no choices in completion"))
	}
	return stripThinking(resp.Choices[0].Content), nil
}

func (m *LangchainModel) buildMessages(req domain.CompletionRequest) []llms.MessageContent {
	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}

	parts := []llms.ContentPart{llms.TextContent{Text: req.Prompt}}
	for _, img := range req.Images {
		if m.inlineImages {
			parts = append(parts, llms.BinaryPart(img.MIMEType, img.Data))
		} else {
			parts = append(parts, llms.ImageURLPart(util.DataURI(img.MIMEType, img.Data)))
		}
	}
	return append(messages, llms.MessageContent{Role: llms.ChatMessageTypeHuman, Parts: parts})
}

func callOptions(req domain.CompletionRequest, jsonMode bool) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSONOutput && jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}
	return opts
}

// stripThinking drops a leading <think>...</think> block emitted by reasoning models.
func stripThinking(s string) string {
	start := strings.Index(s, "<think>")
	if start < 0 {
		return s
	}
	end := strings.Index(s, "</think>")
	if end < start {
		return s
	}
	return strings.TrimSpace(s[:start] + s[end+len("</think>"):])
}

var _ domain.QuizModel = (*LangchainModel)(nil)
