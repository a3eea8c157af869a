package extract

import (
	"context"
	"errors"
	"testing"

	"quizforge/internal/config"
	"quizforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTesseractOCR_MissingBinary(t *testing.T) {
	ocr := NewTesseractOCR(config.OCRConfig{Language: "eng"})
	ocr.bin = "quizforge-no-such-tesseract"

	res, err := ocr.DetectText(context.Background(), domain.Upload{Filename: "a.png", Data: []byte("png")})
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeExternalService))
	assert.Contains(t, err.Error(), "not found in PATH")
}

func TestNewOCRService(t *testing.T) {
	svc, err := NewOCRService(context.Background(), config.OCRConfig{Provider: "tesseract"})
	require.NoError(t, err)
	assert.IsType(t, &TesseractOCR{}, svc)

	svc, err = NewOCRService(context.Background(), config.OCRConfig{Provider: "vision", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &VisionOCR{}, svc)

	_, err = NewOCRService(context.Background(), config.OCRConfig{Provider: "paper"})
	assert.Error(t, err)
}

func TestUnavailableOCR(t *testing.T) {
	svc := Unavailable(errors.New("vision API key is required"))
	res, err := svc.DetectText(context.Background(), domain.Upload{Filename: "a.png"})
	assert.Nil(t, res)
	assert.True(t, domain.HasCode(err, domain.CodeExternalService))
	assert.Contains(t, err.Error(), "vision API key is required")
}
