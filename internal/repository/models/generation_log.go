package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizforge/internal/domain"
)

// QuizDocument stores a quiz as a JSON text column (CLOB on Oracle, TEXT on SQLite).
type QuizDocument domain.Quiz

// Value implements the driver.Valuer interface
func (q QuizDocument) Value() (driver.Value, error) {
	if q.Questions == nil {
		return `{"questions":[]}`, nil
	}
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (q *QuizDocument) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*q = QuizDocument{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("QuizDocument Scan: unsupported type " + fmt.Sprintf("%T", value))
	}
	if len(raw) == 0 {
		*q = QuizDocument{}
		return nil
	}
	return json.Unmarshal(raw, q)
}

// GenerationLog is one row of generation_logs.
type GenerationLog struct {
	ID            string         `db:"ID"`
	SessionID     sql.NullString `db:"SESSION_ID"`
	Source        string         `db:"SOURCE_KIND"`
	Model         sql.NullString `db:"LLM_MODEL"`
	Difficulty    string         `db:"DIFFICULTY"`
	QuestionCount int            `db:"QUESTION_COUNT"`
	PromptUsed    string         `db:"PROMPT_USED"`
	Quiz          QuizDocument   `db:"QUIZ_JSON"`
	CreatedAt     time.Time      `db:"CREATED_AT"`
}
