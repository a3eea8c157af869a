package domain

import (
	"fmt"
	"strings"
	"time"
)

// OptionsPerQuestion is fixed: every generated item is a four-option MCQ.
const OptionsPerQuestion = 4

// MaxQuestionsPerQuiz is the upper bound of a QuizRequest's question count.
const MaxQuestionsPerQuiz = 50

// Difficulty maps to a band of Bloom's taxonomy.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts the three tiers case-insensitively. An empty value means easy.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case "", DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// SourceKind records where the quiz content came from.
type SourceKind string

const (
	SourcePDF    SourceKind = "pdf"
	SourceImages SourceKind = "images"
	SourceText   SourceKind = "text"
)

// DownloadName is the file name offered for the quiz artifact.
func (k SourceKind) DownloadName() string {
	switch k {
	case SourcePDF:
		return "quiz_from_pdf.json"
	case SourceImages:
		return "quiz_from_images.json"
	default:
		return "quiz_from_text.json"
	}
}

// Question is one multiple-choice item.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Quiz is the artifact produced by one successful generation.
type Quiz struct {
	Questions []Question `json:"questions"`
}

// Validate checks the quiz invariants. The first broken invariant is reported.
func (q *Quiz) Validate() error {
	if q == nil || len(q.Questions) == 0 {
		return NewSchemaViolationError("'questions' must be a non-empty array")
	}
	for i, item := range q.Questions {
		n := i + 1
		if strings.TrimSpace(item.Question) == "" {
			return NewSchemaViolationError(fmt.Sprintf("question %d has empty 'question' text", n))
		}
		if len(item.Options) != OptionsPerQuestion {
			return NewSchemaViolationError(fmt.Sprintf("question %d must have exactly %d options, got %d", n, OptionsPerQuestion, len(item.Options)))
		}
		seen := make(map[string]struct{}, len(item.Options))
		for _, o := range item.Options {
			if _, dup := seen[o]; dup {
				return NewSchemaViolationError(fmt.Sprintf("question %d has duplicate option %q", n, o))
			}
			seen[o] = struct{}{}
		}
		if !item.HasOption(item.Answer) {
			return NewSchemaViolationError(fmt.Sprintf("question %d answer %q is not one of its options", n, item.Answer))
		}
	}
	return nil
}

// HasOption reports whether option is one of the question's options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// QuizRequest is the user's generation input.
type QuizRequest struct {
	Difficulty    Difficulty
	QuestionCount int
	Guidance      string
	Model         string
	Temperature   *float64
}

// Upload is one file received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExtractionResult is the text pulled out of uploads plus per-unit diagnostics.
type ExtractionResult struct {
	Text     string
	Warnings []string
}

// GenerationRecord is the best-effort log entry written after a successful generation.
type GenerationRecord struct {
	ID            string     `json:"-"`
	SessionID     string     `json:"-"`
	Source        SourceKind `json:"-"`
	Model         string     `json:"-"`
	Timestamp     time.Time  `json:"timestamp"`
	Difficulty    Difficulty `json:"difficulty"`
	QuestionCount int        `json:"questionCount"`
	PromptUsed    string     `json:"promptUsed"`
	Quiz          Quiz       `json:"quiz"`
}
