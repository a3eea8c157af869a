package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"quizforge/internal/config"
	"quizforge/internal/domain"

	"github.com/spf13/afero"
)

// TesseractOCR implements domain.OCRService by running the local tesseract binary.
type TesseractOCR struct {
	fs      afero.Fs
	bin     string
	lang    string
	timeout time.Duration
}

func NewTesseractOCR(cfg config.OCRConfig) *TesseractOCR {
	return &TesseractOCR{
		fs:      afero.NewOsFs(),
		bin:     "tesseract",
		lang:    cfg.Language,
		timeout: 20 * time.Second,
	}
}

func (t *TesseractOCR) DetectText(ctx context.Context, image domain.Upload) (*domain.OCRResult, error) {
	if _, err := exec.LookPath(t.bin); err != nil {
		return nil, domain.NewExternalServiceError("tesseract", fmt.Errorf("%s not found in PATH", t.bin))
	}

	f, err := afero.TempFile(t.fs, "", "scan-*"+filepath.Ext(image.Filename))
	if err != nil {
		return nil, domain.NewInternalError("failed to create scan file", err)
	}
	defer func() {
		_ = f.Close()
		_ = t.fs.Remove(f.Name())
	}()
	if _, err := f.Write(image.Data); err != nil {
		return nil, domain.NewInternalError("failed to write scan file", err)
	}

	out, err := t.run(ctx, f.Name())
	if err != nil {
		return nil, domain.NewExternalServiceError("tesseract", err)
	}
	if strings.TrimSpace(out) == "" {
		return &domain.OCRResult{}, nil
	}
	return &domain.OCRResult{Text: out, Found: true}, nil
}

func (t *TesseractOCR) run(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout"}
	if t.lang != "" {
		args = append(args, "-l", t.lang)
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, t.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

var _ domain.OCRService = (*TesseractOCR)(nil)
