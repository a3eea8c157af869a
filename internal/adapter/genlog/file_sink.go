package genlog

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"quizforge/internal/domain"

	"github.com/spf13/afero"
)

// FileSink writes one pretty-printed JSON file per generation into dir.
type FileSink struct {
	fs  afero.Fs
	dir string
}

func NewFileSink(fs afero.Fs, dir string) *FileSink {
	return &FileSink{fs: fs, dir: dir}
}

// FileName is quiz_log_<utc timestamp>_<id>.json.
func FileName(rec *domain.GenerationRecord) string {
	return fmt.Sprintf("quiz_log_%s_%s.json", rec.Timestamp.UTC().Format("20060102_150405"), rec.ID)
}

func (s *FileSink) Record(_ context.Context, rec *domain.GenerationRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal generation log: %w", err)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create log dir %s: %w", s.dir, err)
	}
	name := filepath.Join(s.dir, FileName(rec))
	if err := afero.WriteFile(s.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("write generation log %s: %w", name, err)
	}
	return nil
}

var _ domain.GenerationLogger = (*FileSink)(nil)
