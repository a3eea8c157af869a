package genlog

import (
	"context"
	"errors"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/logger"
	"quizforge/internal/util"

	"go.uber.org/zap"
)

// Sink pairs a GenerationLogger with the name used in log lines.
type Sink struct {
	Name   string
	Logger domain.GenerationLogger
}

// MultiLogger fans a record out to every sink. A failing sink does not stop the others.
type MultiLogger struct {
	sinks []Sink
	now   func() time.Time
}

func NewMultiLogger(sinks ...Sink) *MultiLogger {
	return &MultiLogger{sinks: sinks, now: time.Now}
}

// Len reports how many sinks are configured.
func (m *MultiLogger) Len() int {
	return len(m.sinks)
}

func (m *MultiLogger) Record(ctx context.Context, rec *domain.GenerationRecord) error {
	if rec.ID == "" {
		rec.ID = util.NewULID()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = m.now().UTC()
	}

	var errs []error
	for _, s := range m.sinks {
		if err := s.Logger.Record(ctx, rec); err != nil {
			logger.Get().Warn("Generation log sink failed",
				zap.String("sink", s.Name), zap.String("id", rec.ID), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ domain.GenerationLogger = (*MultiLogger)(nil)
