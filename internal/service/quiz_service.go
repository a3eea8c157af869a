package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/logger"
	"quizforge/internal/prompt"
	"quizforge/internal/util"
	"quizforge/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// NoTextDetected is appended in place of an image that OCR found no text in.
const NoTextDetected = "No text detected in this image.\n"

// ImageMode selects how uploaded images reach the model.
type ImageMode string

const (
	// ImageModeOCR runs text detection and prompts with the recognised text.
	ImageModeOCR ImageMode = "ocr"
	// ImageModeVision sends the images to the model as data URIs.
	ImageModeVision ImageMode = "vision"
)

// ParseImageMode accepts "ocr" and "vision"; empty means ocr.
func ParseImageMode(s string) (ImageMode, error) {
	switch ImageMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ImageModeOCR:
		return ImageModeOCR, nil
	case ImageModeVision:
		return ImageModeVision, nil
	}
	return "", fmt.Errorf("unknown image mode %q", s)
}

// GenerateResult is a freshly generated quiz plus extraction diagnostics.
type GenerateResult struct {
	Quiz     *domain.Quiz
	Source   domain.SourceKind
	Model    string
	Warnings []string
}

// QuizService drives the generate, answer, score and download flow of one session.
type QuizService interface {
	GenerateFromPDF(ctx context.Context, sessionID string, files []domain.Upload, params validation.GenerateParams) (*GenerateResult, error)
	GenerateFromImages(ctx context.Context, sessionID string, files []domain.Upload, mode ImageMode, params validation.GenerateParams) (*GenerateResult, error)
	GenerateFromText(ctx context.Context, sessionID string, text string, params validation.GenerateParams) (*GenerateResult, error)
	GetSession(ctx context.Context, sessionID string) (*domain.QuizSession, error)
	RecordAnswer(ctx context.Context, sessionID string, index int, option string) error
	Score(ctx context.Context, sessionID string) (*domain.ScoreResult, error)
	Download(ctx context.Context, sessionID string) (string, []byte, error)
	Clear(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

// QuizServiceDeps groups the ports the service talks to. GenLog may be nil.
type QuizServiceDeps struct {
	Model     domain.QuizModel
	PDF       domain.PDFExtractor
	OCR       domain.OCRService
	Sessions  domain.SessionStore
	GenLog    domain.GenerationLogger
	Validator *validation.Validator
	Prompts   *prompt.Builder
}

type quizService struct {
	deps   QuizServiceDeps
	llmCfg config.LLMConfig
	group  singleflight.Group
}

// NewQuizService creates a new instance of quizService
func NewQuizService(deps QuizServiceDeps, llmCfg config.LLMConfig) QuizService {
	return &quizService{deps: deps, llmCfg: llmCfg}
}

// generation is the source-specific part of one generate call.
type generation struct {
	source domain.SourceKind
	req    *domain.QuizRequest
	build  func(ctx context.Context) (domain.CompletionRequest, []string, error)
}

func (s *quizService) GenerateFromPDF(ctx context.Context, sessionID string, files []domain.Upload, params validation.GenerateParams) (*GenerateResult, error) {
	req, err := s.validate(params, files, func(u domain.Upload) bool {
		return util.IsPDF(util.DetectMIME(u.Filename, u.ContentType, u.Data))
	})
	if err != nil {
		return nil, err
	}

	return s.generate(ctx, sessionID, generation{
		source: domain.SourcePDF,
		req:    req,
		build: func(ctx context.Context) (domain.CompletionRequest, []string, error) {
			text, warnings := s.extractPDFs(ctx, files)
			if strings.TrimSpace(text) == "" {
				return domain.CompletionRequest{}, warnings, domain.NewNoExtractableTextError()
			}
			return s.textCompletion(text, req), warnings, nil
		},
	})
}

func (s *quizService) GenerateFromImages(ctx context.Context, sessionID string, files []domain.Upload, mode ImageMode, params validation.GenerateParams) (*GenerateResult, error) {
	req, err := s.validate(params, files, func(u domain.Upload) bool {
		return util.IsImage(util.DetectMIME(u.Filename, u.ContentType, u.Data))
	})
	if err != nil {
		return nil, err
	}

	g := generation{source: domain.SourceImages, req: req}
	switch mode {
	case ImageModeVision:
		g.build = func(context.Context) (domain.CompletionRequest, []string, error) {
			return s.visionCompletion(files, req), nil, nil
		}
	default:
		g.build = func(ctx context.Context) (domain.CompletionRequest, []string, error) {
			text, detected, warnings := s.extractImages(ctx, files)
			if detected == 0 {
				return domain.CompletionRequest{}, warnings, domain.NewNoExtractableTextError()
			}
			return s.textCompletion(text, req), warnings, nil
		}
	}
	return s.generate(ctx, sessionID, g)
}

func (s *quizService) GenerateFromText(ctx context.Context, sessionID string, text string, params validation.GenerateParams) (*GenerateResult, error) {
	req, verrs := s.deps.Validator.ValidateGenerateRequest(params)
	if strings.TrimSpace(text) == "" {
		verrs = append(verrs, domain.NewMissingFieldError("text"))
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	return s.generate(ctx, sessionID, generation{
		source: domain.SourceText,
		req:    req,
		build: func(context.Context) (domain.CompletionRequest, []string, error) {
			return s.textCompletion(text, req), nil, nil
		},
	})
}

func (s *quizService) validate(params validation.GenerateParams, files []domain.Upload, accept func(domain.Upload) bool) (*domain.QuizRequest, error) {
	req, verrs := s.deps.Validator.ValidateGenerateRequest(params)
	verrs = append(verrs, s.deps.Validator.ValidateUploads(files, accept)...)
	if len(verrs) > 0 {
		return nil, verrs
	}
	return req, nil
}

// generationTimeout bounds a shared generation, which outlives the caller that started it.
const generationTimeout = 5 * time.Minute

// generate collapses concurrent calls of one session into a single model call.
// Followers get the leader's result. A failure leaves the stored session untouched.
// The shared call is detached from the leader's cancellation; each caller stops
// waiting when its own context ends.
func (s *quizService) generate(ctx context.Context, sessionID string, g generation) (*GenerateResult, error) {
	ch := s.group.DoChan(sessionID, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), max(generationTimeout, 2*s.llmCfg.Timeout))
		defer cancel()
		return s.runGeneration(runCtx, sessionID, g)
	})

	select {
	case res := <-ch:
		if res.Shared {
			logger.Get().Debug("Generate request joined an in-flight generation", zap.String("session_id", sessionID))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*GenerateResult), nil
	case <-ctx.Done():
		logger.Get().Info("Caller left before generation finished", zap.String("session_id", sessionID), zap.Error(ctx.Err()))
		return nil, ctx.Err()
	}
}

func (s *quizService) runGeneration(ctx context.Context, sessionID string, g generation) (*GenerateResult, error) {
	if _, stripped := prompt.Sanitize(g.req.Guidance); stripped {
		logger.Get().Warn("Prompt injection phrases removed from guidance",
			zap.String("session_id", sessionID))
	}

	completion, warnings, err := g.build(ctx)
	for _, w := range warnings {
		logger.Get().Warn("Extraction warning", zap.String("session_id", sessionID), zap.String("warning", w))
	}
	if err != nil {
		return nil, err
	}

	raw, err := s.deps.Model.Complete(ctx, completion)
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			return nil, domainErr
		}
		return nil, domain.NewExternalServiceError(s.deps.Model.Name(), err)
	}

	quiz, err := validation.ParseQuiz(raw)
	if err != nil {
		logger.Get().Warn("Model reply rejected",
			zap.String("session_id", sessionID),
			zap.Error(err),
			zap.Int("reply_chars", len(raw)),
		)
		return nil, err
	}

	if err := s.deps.Sessions.SetQuiz(ctx, sessionID, quiz, g.source); err != nil {
		return nil, err
	}

	model := pick(completion.Model, s.llmCfg.Model)
	s.recordGeneration(ctx, &domain.GenerationRecord{
		SessionID:     sessionID,
		Source:        g.source,
		Model:         model,
		Difficulty:    g.req.Difficulty,
		QuestionCount: g.req.QuestionCount,
		PromptUsed:    completion.Prompt,
		Quiz:          *quiz,
	})

	logger.Get().Info("Quiz generated",
		zap.String("session_id", sessionID),
		zap.String("source", string(g.source)),
		zap.String("difficulty", string(g.req.Difficulty)),
		zap.Int("questions", len(quiz.Questions)),
	)

	if warnings == nil {
		warnings = []string{}
	}
	return &GenerateResult{Quiz: quiz, Source: g.source, Model: model, Warnings: warnings}, nil
}

func (s *quizService) recordGeneration(ctx context.Context, rec *domain.GenerationRecord) {
	if s.deps.GenLog == nil {
		return
	}
	if err := s.deps.GenLog.Record(ctx, rec); err != nil {
		logger.Get().Warn("Failed to write generation log", zap.Error(err), zap.String("session_id", rec.SessionID))
	}
}

func (s *quizService) textCompletion(text string, req *domain.QuizRequest) domain.CompletionRequest {
	return domain.CompletionRequest{
		System:      prompt.SystemPrompt,
		Prompt:      s.deps.Prompts.BuildPrompt(text, req.Difficulty, req.QuestionCount, req.Guidance),
		Model:       req.Model,
		Temperature: temperature(req.Temperature, s.llmCfg.Temperature),
		MaxTokens:   s.llmCfg.MaxTokens,
		JSONOutput:  true,
	}
}

func (s *quizService) visionCompletion(files []domain.Upload, req *domain.QuizRequest) domain.CompletionRequest {
	images := make([]domain.ImagePart, 0, len(files))
	for _, f := range files {
		images = append(images, domain.ImagePart{
			MIMEType: util.ImageMIME(util.DetectMIME(f.Filename, f.ContentType, f.Data)),
			Data:     f.Data,
		})
	}
	return domain.CompletionRequest{
		System:      prompt.VisionSystemPrompt,
		Prompt:      s.deps.Prompts.BuildImagePrompt(req.Difficulty, req.QuestionCount, req.Guidance),
		Images:      images,
		Model:       req.Model,
		Temperature: temperature(req.Temperature, s.llmCfg.VisionTemperature),
		MaxTokens:   s.llmCfg.VisionMaxTokens,
		JSONOutput:  true,
	}
}

// extractPDFs merges the text of every document in upload order.
// A document that cannot be opened contributes nothing and a warning.
func (s *quizService) extractPDFs(ctx context.Context, files []domain.Upload) (string, []string) {
	var warnings []string
	texts := make([]string, 0, len(files))
	for _, f := range files {
		text, err := s.deps.PDF.ExtractText(ctx, f)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Could not read %s: %v", f.Filename, err))
			continue
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, "\n\n"), warnings
}

// extractImages runs OCR on each image in order. detected counts images with text.
func (s *quizService) extractImages(ctx context.Context, files []domain.Upload) (string, int, []string) {
	var (
		sb       strings.Builder
		warnings []string
		detected int
	)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			warnings = append(warnings, fmt.Sprintf("OCR skipped for %s: %v", f.Filename, err))
			continue
		}
		res, err := s.deps.OCR.DetectText(ctx, f)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("OCR failed for %s: %v", f.Filename, err))
			continue
		}
		if !res.Found {
			warnings = append(warnings, "No text detected in "+f.Filename)
			sb.WriteString(NoTextDetected)
			continue
		}
		detected++
		sb.WriteString(res.Text)
		sb.WriteString("\n")
	}
	return sb.String(), detected, warnings
}

func (s *quizService) GetSession(ctx context.Context, sessionID string) (*domain.QuizSession, error) {
	return s.deps.Sessions.Load(ctx, sessionID)
}

func (s *quizService) RecordAnswer(ctx context.Context, sessionID string, index int, option string) error {
	if verrs := s.deps.Validator.ValidateAnswer(index, option); len(verrs) > 0 {
		return verrs
	}
	return s.deps.Sessions.RecordAnswer(ctx, sessionID, index, option)
}

func (s *quizService) Score(ctx context.Context, sessionID string) (*domain.ScoreResult, error) {
	session, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result := session.ScoreDetails()
	return &result, nil
}

// Download returns the file name and the two-space indented quiz JSON.
func (s *quizService) Download(ctx context.Context, sessionID string) (string, []byte, error) {
	session, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	data, err := json.MarshalIndent(session.Quiz, "", "  ")
	if err != nil {
		return "", nil, domain.NewInternalError("failed to encode quiz", err)
	}
	return session.Source.DownloadName(), data, nil
}

func (s *quizService) Clear(ctx context.Context, sessionID string) error {
	return s.deps.Sessions.Clear(ctx, sessionID)
}

func (s *quizService) Ping(ctx context.Context) error {
	return s.deps.Sessions.Ping(ctx)
}

func (s *quizService) activeSession(ctx context.Context, sessionID string) (*domain.QuizSession, error) {
	session, err := s.deps.Sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasQuiz() {
		return nil, domain.NewQuizNotFoundError()
	}
	return session, nil
}

func temperature(override *float64, fallback float64) float64 {
	if override != nil {
		return *override
	}
	return fallback
}

func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
