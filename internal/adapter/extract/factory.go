package extract

import (
	"context"
	"fmt"

	"quizforge/internal/config"
	"quizforge/internal/domain"
)

// NewOCRService picks the OCR backend named by ocr.provider.
func NewOCRService(ctx context.Context, cfg config.OCRConfig) (domain.OCRService, error) {
	switch cfg.Provider {
	case "vision":
		return NewVisionOCR(ctx, cfg)
	case "tesseract":
		return NewTesseractOCR(cfg), nil
	default:
		return nil, fmt.Errorf("unknown OCR provider: %q", cfg.Provider)
	}
}

// unavailableOCR stands in for a backend that could not be constructed.
type unavailableOCR struct {
	err error
}

// Unavailable returns an OCRService whose every call fails with err.
func Unavailable(err error) domain.OCRService {
	return unavailableOCR{err: err}
}

func (u unavailableOCR) DetectText(context.Context, domain.Upload) (*domain.OCRResult, error) {
	return nil, domain.NewExternalServiceError("ocr", u.err)
}
