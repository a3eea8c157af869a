package domain

import "context"

// PDFExtractor returns the page-ordered plain text of one PDF.
// Unreadable pages contribute an empty string; an error means the document
// could not be opened at all.
type PDFExtractor interface {
	ExtractText(ctx context.Context, doc Upload) (string, error)
}

// OCRResult is the outcome of text detection on one image.
type OCRResult struct {
	Text  string
	Found bool
}

// OCRService detects text in one image.
type OCRService interface {
	DetectText(ctx context.Context, image Upload) (*OCRResult, error)
}
