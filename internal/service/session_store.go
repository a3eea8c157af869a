package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quizforge/internal/cache"
	"quizforge/internal/domain"
	"quizforge/internal/logger"
	"quizforge/internal/util"

	"go.uber.org/zap"
)

const (
	fieldQuiz         = "quiz"
	fieldQuizID       = "quiz_id"
	fieldSource       = "source"
	answerFieldPrefix = "answer:"
)

// cacheSessionStore keeps each session in one hash:
// "quiz" -> quiz JSON, "quiz_id" -> ULID of that quiz, "source" -> source kind,
// "answer:<n>" -> chosen option.
type cacheSessionStore struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewSessionStore creates a domain.SessionStore backed by the given cache.
func NewSessionStore(c domain.Cache, ttl time.Duration) domain.SessionStore {
	return &cacheSessionStore{cache: c, ttl: ttl}
}

func answerField(index int) string {
	return answerFieldPrefix + strconv.Itoa(index)
}

func (s *cacheSessionStore) Load(ctx context.Context, id string) (*domain.QuizSession, error) {
	key := cache.SessionKey(id)
	fields, err := s.cache.HGetAll(ctx, key)
	if err != nil {
		logger.Get().Error("Failed to load session", zap.Error(err), zap.String("key", key))
		return nil, domain.NewInternalError("failed to load session", err)
	}

	session := domain.NewQuizSession(id)
	rawQuiz, ok := fields[fieldQuiz]
	if !ok {
		return session, nil
	}

	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(rawQuiz), &quiz); err != nil {
		logger.Get().Error("Stored quiz is corrupt, dropping session", zap.Error(err), zap.String("key", key))
		_ = s.cache.Delete(ctx, key)
		return session, nil
	}
	session.SetQuiz(&quiz, domain.SourceKind(fields[fieldSource]))

	for field, option := range fields {
		if !strings.HasPrefix(field, answerFieldPrefix) {
			continue
		}
		index, err := strconv.Atoi(strings.TrimPrefix(field, answerFieldPrefix))
		if err != nil {
			continue
		}
		session.RecordAnswer(index, option)
	}
	return session, nil
}

// SetQuiz replaces the whole hash in one step, so the answer sheet starts empty
// and a failed write leaves the previous quiz in place.
func (s *cacheSessionStore) SetQuiz(ctx context.Context, id string, quiz *domain.Quiz, source domain.SourceKind) error {
	key := cache.SessionKey(id)
	data, err := json.Marshal(quiz)
	if err != nil {
		return domain.NewInternalError("failed to marshal quiz", err)
	}

	fields := map[string]string{
		fieldQuiz:   string(data),
		fieldQuizID: util.NewULID(),
		fieldSource: string(source),
	}
	if err := s.cache.ReplaceHash(ctx, key, fields, s.ttl); err != nil {
		return domain.NewInternalError("failed to store quiz", err)
	}
	return nil
}

// RecordAnswer writes the answer only if the quiz it was validated against is
// still the stored one. A quiz replaced in between yields QUIZ_NOT_FOUND.
func (s *cacheSessionStore) RecordAnswer(ctx context.Context, id string, index int, option string) error {
	key := cache.SessionKey(id)
	fields, err := s.cache.HGetAll(ctx, key)
	if err != nil {
		return domain.NewInternalError("failed to read session", err)
	}
	rawQuiz, ok := fields[fieldQuiz]
	if !ok {
		return domain.NewQuizNotFoundError()
	}

	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(rawQuiz), &quiz); err != nil {
		return domain.NewInternalError("stored quiz is corrupt", err)
	}
	if index < 1 || index > len(quiz.Questions) {
		return domain.ValidationErrors{domain.NewOutOfRangeError("index", index, 1, len(quiz.Questions))}
	}

	written, err := s.cache.HSetIfEqual(ctx, key, fieldQuizID, fields[fieldQuizID], answerField(index), option)
	if err != nil {
		return domain.NewInternalError(fmt.Sprintf("failed to record answer %d", index), err)
	}
	if !written {
		logger.Get().Info("Quiz replaced while recording answer", zap.String("key", key), zap.Int("index", index))
		return domain.NewQuizNotFoundError()
	}
	return s.touch(ctx, key)
}

func (s *cacheSessionStore) Clear(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, cache.SessionKey(id)); err != nil {
		return domain.NewInternalError("failed to clear session", err)
	}
	return nil
}

func (s *cacheSessionStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

func (s *cacheSessionStore) touch(ctx context.Context, key string) error {
	if s.ttl <= 0 {
		return nil
	}
	if err := s.cache.Expire(ctx, key, s.ttl); err != nil {
		logger.Get().Warn("Failed to refresh session TTL", zap.Error(err), zap.String("key", key))
	}
	return nil
}
