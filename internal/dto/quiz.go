package dto

import (
	"quizforge/internal/domain"
)

// GenerateTextRequest is the body of POST /api/quizzes/text.
type GenerateTextRequest struct {
	Text        string   `json:"text"`
	Difficulty  string   `json:"difficulty"`
	Count       *int     `json:"count,omitempty"`
	Guidance    string   `json:"guidance"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// QuestionView is a question as shown to the learner, without its answer.
type QuestionView struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizResponse is the active quiz of a session plus the answers recorded so far.
type QuizResponse struct {
	Source    string         `json:"source"`
	Questions []QuestionView `json:"questions"`
	Answers   map[int]string `json:"answers"`
}

// GenerateResponse is returned by the generate endpoints.
type GenerateResponse struct {
	QuizResponse
	Model    string   `json:"model"`
	Warnings []string `json:"warnings"`
}

// AnswerRequest is the body of PUT /api/session/answers/:index.
type AnswerRequest struct {
	Option string `json:"option"`
}

// ScoreResponse is the outcome of POST /api/session/score.
type ScoreResponse struct {
	Correct int                     `json:"correct"`
	Total   int                     `json:"total"`
	Details []domain.QuestionResult `json:"details"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// NewQuizResponse hides the correct answers of quiz.
func NewQuizResponse(quiz *domain.Quiz, source domain.SourceKind, answers map[int]string) QuizResponse {
	resp := QuizResponse{
		Source:    string(source),
		Questions: make([]QuestionView, 0, len(quiz.Questions)),
		Answers:   answers,
	}
	if resp.Answers == nil {
		resp.Answers = map[int]string{}
	}
	for i, q := range quiz.Questions {
		resp.Questions = append(resp.Questions, QuestionView{
			Index:    i + 1,
			Question: q.Question,
			Options:  q.Options,
		})
	}
	return resp
}
