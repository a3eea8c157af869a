package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"quizforge/internal/config"
	"quizforge/internal/database"
	"quizforge/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupGenerationLogTestDB creates a new sqlx.DB instance and sqlmock for repository testing.
func setupGenerationLogTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func sampleRecord() *domain.GenerationRecord {
	return &domain.GenerationRecord{
		ID:            "01HZX3Y4V5W6X7Y8Z9A0B1C2D3",
		SessionID:     "sess-1",
		Source:        domain.SourcePDF,
		Model:         "gpt-4o-mini",
		Timestamp:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Difficulty:    domain.DifficultyMedium,
		QuestionCount: 1,
		PromptUsed:    "prompt text",
		Quiz: domain.Quiz{Questions: []domain.Question{{
			Question: "What is the mitochondria known as?",
			Options:  []string{"The powerhouse of the cell", "The nucleus", "The ribosome", "The cell wall"},
			Answer:   "The powerhouse of the cell",
		}}},
	}
}

func TestGenerationLogConverters(t *testing.T) {
	rec := sampleRecord()
	row := fromDomainGenerationRecord(rec)
	require.NotNil(t, row)
	assert.Equal(t, "pdf", row.Source)
	assert.True(t, row.SessionID.Valid)
	assert.Equal(t, rec.Timestamp, row.CreatedAt)

	back := toDomainGenerationRecord(row)
	assert.Equal(t, rec, back)

	rec.SessionID = ""
	assert.False(t, fromDomainGenerationRecord(rec).SessionID.Valid)

	assert.Nil(t, fromDomainGenerationRecord(nil))
	assert.Nil(t, toDomainGenerationRecord(nil))
}

func TestGenerationLogRepository_Record(t *testing.T) {
	db, mock := setupGenerationLogTestDB(t)
	repo := NewSQLXGenerationLogRepository(db)
	rec := sampleRecord()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO GENERATION_LOGS")).
		WithArgs(rec.ID, "sess-1", "pdf", "gpt-4o-mini", "medium", 1, "prompt text", sqlmock.AnyArg(), rec.Timestamp).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Record(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepository_RecordFillsIDAndTime(t *testing.T) {
	db, mock := setupGenerationLogTestDB(t)
	repo := NewSQLXGenerationLogRepository(db)
	rec := sampleRecord()
	rec.ID = ""
	rec.Timestamp = time.Time{}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO GENERATION_LOGS")).
		WithArgs(sqlmock.AnyArg(), "sess-1", "pdf", "gpt-4o-mini", "medium", 1, "prompt text", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Record(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepository_RecordError(t *testing.T) {
	db, mock := setupGenerationLogTestDB(t)
	repo := NewSQLXGenerationLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO GENERATION_LOGS")).WillReturnError(errors.New("disk full"))

	err := repo.Record(context.Background(), sampleRecord())
	assert.ErrorContains(t, err, "disk full")
	assert.Error(t, repo.Record(context.Background(), nil))
}

func TestGenerationLogRepository_ListRecent(t *testing.T) {
	db, mock := setupGenerationLogTestDB(t)
	repo := NewSQLXGenerationLogRepository(db)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"ID", "SESSION_ID", "SOURCE_KIND", "LLM_MODEL", "DIFFICULTY", "QUESTION_COUNT", "PROMPT_USED", "QUIZ_JSON", "CREATED_AT"}).
		AddRow("id-2", nil, "images", "gpt-4o", "hard", 2, "p2", `{"questions":[]}`, created).
		AddRow("id-1", "sess-1", "pdf", nil, "easy", 1, "p1", []byte(`{"questions":[{"question":"Q","options":["a","b","c","d"],"answer":"a"}]}`), created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM GENERATION_LOGS")).WithArgs(5).WillReturnRows(rows)

	records, err := repo.ListRecent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "id-2", records[0].ID)
	assert.Empty(t, records[0].SessionID)
	assert.Equal(t, domain.SourceImages, records[0].Source)
	assert.Equal(t, "sess-1", records[1].SessionID)
	assert.Empty(t, records[1].Model)
	assert.Len(t, records[1].Quiz.Questions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepository_SQLiteRoundTrip(t *testing.T) {
	db, err := database.Connect(config.GenLogDBConfig{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, database.RunMigrations(ctx, db))

	repo := NewSQLXGenerationLogRepository(db)
	older := sampleRecord()
	older.ID = "01A"
	newer := sampleRecord()
	newer.ID = "01B"
	newer.Source = domain.SourceText
	newer.Timestamp = older.Timestamp.Add(time.Minute)

	require.NoError(t, repo.Record(ctx, older))
	require.NoError(t, repo.Record(ctx, newer))

	records, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "01B", records[0].ID)
	assert.Equal(t, domain.SourceText, records[0].Source)
	assert.Equal(t, older.Quiz, records[1].Quiz)

	records, err = repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
