package domain

import "context"

// SessionStore persists QuizSession state between requests.
type SessionStore interface {
	// Load returns an empty session when nothing is stored under id.
	Load(ctx context.Context, id string) (*QuizSession, error)
	SetQuiz(ctx context.Context, id string, quiz *Quiz, source SourceKind) error
	// RecordAnswer fails with QUIZ_NOT_FOUND when the session has no quiz.
	RecordAnswer(ctx context.Context, id string, index int, option string) error
	Clear(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// GenerationLogger writes the best-effort record of a generation.
type GenerationLogger interface {
	Record(ctx context.Context, rec *GenerationRecord) error
}
