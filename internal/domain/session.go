package domain

// QuizSession holds at most one active quiz and the learner's answers to it.
// Answers are keyed by 1-based question index.
type QuizSession struct {
	ID      string
	Quiz    *Quiz
	Source  SourceKind
	Answers map[int]string
}

// NewQuizSession returns an empty session in the NoQuiz state.
func NewQuizSession(id string) *QuizSession {
	return &QuizSession{ID: id, Answers: make(map[int]string)}
}

// HasQuiz reports whether the session is in the QuizReady state.
func (s *QuizSession) HasQuiz() bool {
	return s.Quiz != nil
}

// SetQuiz replaces the current quiz and clears the answer sheet.
func (s *QuizSession) SetQuiz(q *Quiz, source SourceKind) {
	s.Quiz = q
	s.Source = source
	s.Answers = make(map[int]string)
}

// RecordAnswer stores the selected option for a question. Last write wins.
// The option is not checked against the question's options.
func (s *QuizSession) RecordAnswer(index int, option string) {
	if s.Answers == nil {
		s.Answers = make(map[int]string)
	}
	s.Answers[index] = option
}

// Clear drops the quiz and the answer sheet.
func (s *QuizSession) Clear() {
	s.Quiz = nil
	s.Source = ""
	s.Answers = make(map[int]string)
}

// QuestionResult is the per-question outcome of scoring.
type QuestionResult struct {
	Index   int    `json:"index"`
	Correct bool   `json:"correct"`
	Answer  string `json:"answer"`
	Chosen  string `json:"chosen,omitempty"`
}

// ScoreResult is derived on demand from the quiz and the answer sheet.
type ScoreResult struct {
	Correct int              `json:"correct"`
	Total   int              `json:"total"`
	Details []QuestionResult `json:"details"`
}

// Score counts questions whose recorded answer equals the correct answer.
// Missing answers count as incorrect.
func (s *QuizSession) Score() (correct, total int) {
	r := s.ScoreDetails()
	return r.Correct, r.Total
}

// ScoreDetails is Score with a per-question breakdown.
func (s *QuizSession) ScoreDetails() ScoreResult {
	if s.Quiz == nil {
		return ScoreResult{Details: []QuestionResult{}}
	}
	result := ScoreResult{
		Total:   len(s.Quiz.Questions),
		Details: make([]QuestionResult, 0, len(s.Quiz.Questions)),
	}
	for i, q := range s.Quiz.Questions {
		idx := i + 1
		chosen, answered := s.Answers[idx]
		ok := answered && chosen == q.Answer
		if ok {
			result.Correct++
		}
		result.Details = append(result.Details, QuestionResult{
			Index:   idx,
			Correct: ok,
			Answer:  q.Answer,
			Chosen:  chosen,
		})
	}
	return result
}
