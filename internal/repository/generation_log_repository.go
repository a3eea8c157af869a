package repository

import (
	"context"
	"fmt"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/repository/models"
	"quizforge/internal/util"

	"github.com/jmoiron/sqlx"
)

// GenerationLogRepository persists generation records and reads them back for history views.
type GenerationLogRepository interface {
	domain.GenerationLogger
	ListRecent(ctx context.Context, limit int) ([]*domain.GenerationRecord, error)
}

// sqlxGenerationLogRepository implements GenerationLogRepository using sqlx.
type sqlxGenerationLogRepository struct {
	db *sqlx.DB
}

// NewSQLXGenerationLogRepository creates a new instance of sqlxGenerationLogRepository.
func NewSQLXGenerationLogRepository(db *sqlx.DB) GenerationLogRepository {
	return &sqlxGenerationLogRepository{db: db}
}

func fromDomainGenerationRecord(rec *domain.GenerationRecord) *models.GenerationLog {
	if rec == nil {
		return nil
	}
	return &models.GenerationLog{
		ID:            rec.ID,
		SessionID:     util.StringToNullString(rec.SessionID),
		Source:        string(rec.Source),
		Model:         util.StringToNullString(rec.Model),
		Difficulty:    string(rec.Difficulty),
		QuestionCount: rec.QuestionCount,
		PromptUsed:    rec.PromptUsed,
		Quiz:          models.QuizDocument(rec.Quiz),
		CreatedAt:     rec.Timestamp,
	}
}

func toDomainGenerationRecord(row *models.GenerationLog) *domain.GenerationRecord {
	if row == nil {
		return nil
	}
	return &domain.GenerationRecord{
		ID:            row.ID,
		SessionID:     util.NullStringToString(row.SessionID),
		Source:        domain.SourceKind(row.Source),
		Model:         util.NullStringToString(row.Model),
		Timestamp:     row.CreatedAt,
		Difficulty:    domain.Difficulty(row.Difficulty),
		QuestionCount: row.QuestionCount,
		PromptUsed:    row.PromptUsed,
		Quiz:          domain.Quiz(row.Quiz),
	}
}

const insertGenerationLogQuery = `INSERT INTO GENERATION_LOGS (ID, SESSION_ID, SOURCE_KIND, LLM_MODEL, DIFFICULTY, QUESTION_COUNT, PROMPT_USED, QUIZ_JSON, CREATED_AT)
	VALUES (:ID, :SESSION_ID, :SOURCE_KIND, :LLM_MODEL, :DIFFICULTY, :QUESTION_COUNT, :PROMPT_USED, :QUIZ_JSON, :CREATED_AT)`

// Record inserts one generation record. ID and timestamp are filled in when missing.
func (r *sqlxGenerationLogRepository) Record(ctx context.Context, rec *domain.GenerationRecord) error {
	row := fromDomainGenerationRecord(rec)
	if row == nil {
		return fmt.Errorf("generation record is nil")
	}
	if row.ID == "" {
		row.ID = util.NewULID()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	if _, err := r.db.NamedExecContext(ctx, insertGenerationLogQuery, row); err != nil {
		return fmt.Errorf("failed to insert generation log: %w", err)
	}
	return nil
}

const selectGenerationLogsQuery = `SELECT ID, SESSION_ID, SOURCE_KIND, LLM_MODEL, DIFFICULTY, QUESTION_COUNT, PROMPT_USED, QUIZ_JSON, CREATED_AT
	FROM GENERATION_LOGS
	ORDER BY CREATED_AT DESC, ID DESC`

// ListRecent returns the newest records first.
func (r *sqlxGenerationLogRepository) ListRecent(ctx context.Context, limit int) ([]*domain.GenerationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	limitClause := "LIMIT ?"
	if r.db.DriverName() == "oracle" {
		limitClause = "FETCH FIRST ? ROWS ONLY"
	}
	query := r.db.Rebind(selectGenerationLogsQuery + " " + limitClause)

	var rows []models.GenerationLog
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list generation logs: %w", err)
	}

	records := make([]*domain.GenerationRecord, 0, len(rows))
	for i := range rows {
		records = append(records, toDomainGenerationRecord(&rows[i]))
	}
	return records, nil
}
