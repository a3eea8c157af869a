package validation

import (
	"strings"
	"unicode/utf8"

	"quizforge/internal/config"
	"quizforge/internal/domain"
)

// GenerateParams is the raw user input of a generation request.
type GenerateParams struct {
	Difficulty  string
	Count       int
	Guidance    string
	Model       string
	Temperature *float64
}

// Validator provides request validation functionality
type Validator struct {
	maxQuestions     int
	maxGuidanceChars int
	allowedModels    map[string]struct{}
}

// NewValidator creates a new validator instance
func NewValidator(quizCfg config.QuizConfig, llmCfg config.LLMConfig) *Validator {
	allowed := make(map[string]struct{}, len(llmCfg.AllowedModels)+1)
	for _, m := range llmCfg.AllowedModels {
		allowed[m] = struct{}{}
	}
	if llmCfg.Model != "" {
		allowed[llmCfg.Model] = struct{}{}
	}
	return &Validator{
		maxQuestions:     quizCfg.MaxQuestions,
		maxGuidanceChars: quizCfg.MaxGuidanceChars,
		allowedModels:    allowed,
	}
}

// ValidateGenerateRequest checks the user controls and builds a QuizRequest.
func (v *Validator) ValidateGenerateRequest(p GenerateParams) (*domain.QuizRequest, domain.ValidationErrors) {
	var errors domain.ValidationErrors

	difficulty, err := domain.ParseDifficulty(p.Difficulty)
	if err != nil {
		errors = append(errors, domain.NewInvalidFormatError("difficulty", p.Difficulty))
	}

	if p.Count < 1 || p.Count > v.maxQuestions {
		errors = append(errors, domain.NewOutOfRangeError("count", p.Count, 1, v.maxQuestions))
	}

	if v.maxGuidanceChars > 0 && utf8.RuneCountInString(p.Guidance) > v.maxGuidanceChars {
		errors = append(errors, domain.NewOutOfRangeError("guidance", utf8.RuneCountInString(p.Guidance), 0, v.maxGuidanceChars))
	}

	model := strings.TrimSpace(p.Model)
	if model != "" {
		if _, ok := v.allowedModels[model]; !ok {
			errors = append(errors, domain.NewInvalidFormatError("model", model))
		}
	}

	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 1) {
		errors = append(errors, domain.ValidationError{
			Field:   "temperature",
			Code:    domain.CodeOutOfRange,
			Message: "must be between 0 and 1",
			Value:   *p.Temperature,
		})
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return &domain.QuizRequest{
		Difficulty:    difficulty,
		QuestionCount: p.Count,
		Guidance:      p.Guidance,
		Model:         model,
		Temperature:   p.Temperature,
	}, nil
}

// ValidateAnswer checks a recordAnswer call.
func (v *Validator) ValidateAnswer(index int, option string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if index < 1 || index > v.maxQuestions {
		errors = append(errors, domain.NewOutOfRangeError("index", index, 1, v.maxQuestions))
	}
	if strings.TrimSpace(option) == "" {
		errors = append(errors, domain.NewMissingFieldError("option"))
	}

	return errors
}

// ValidateUploads checks that at least one file of an accepted kind was sent.
func (v *Validator) ValidateUploads(uploads []domain.Upload, accept func(domain.Upload) bool) domain.ValidationErrors {
	if len(uploads) == 0 {
		return domain.ValidationErrors{domain.NewMissingFieldError("files")}
	}
	var errors domain.ValidationErrors
	for _, u := range uploads {
		if len(u.Data) == 0 {
			errors = append(errors, domain.ValidationError{
				Field:   "files",
				Code:    domain.CodeInvalidFormat,
				Message: "file is empty",
				Value:   u.Filename,
			})
			continue
		}
		if !accept(u) {
			errors = append(errors, domain.NewInvalidFormatError("files", u.Filename))
		}
	}
	return errors
}
