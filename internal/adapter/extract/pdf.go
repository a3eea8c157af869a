package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"quizforge/internal/domain"
	"quizforge/internal/logger"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// pageSource yields the text of one 1-based page.
type pageSource interface {
	NumPage() int
	PageText(num int) (string, error)
}

type pdfPages struct {
	reader *pdf.Reader
	fonts  map[string]*pdf.Font
}

func (p *pdfPages) NumPage() int {
	return p.reader.NumPage()
}

func (p *pdfPages) PageText(num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", num, r)
		}
	}()

	page := p.reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	for _, name := range page.Fonts() {
		if _, ok := p.fonts[name]; !ok {
			f := page.Font(name)
			p.fonts[name] = &f
		}
	}
	return page.GetPlainText(p.fonts)
}

// PDFTextExtractor implements domain.PDFExtractor with github.com/ledongthuc/pdf.
type PDFTextExtractor struct{}

func NewPDFTextExtractor() *PDFTextExtractor {
	return &PDFTextExtractor{}
}

func (e *PDFTextExtractor) ExtractText(ctx context.Context, doc domain.Upload) (string, error) {
	src, err := openPDF(doc.Data)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", doc.Filename, err)
	}
	return joinPages(ctx, doc.Filename, src)
}

func openPDF(data []byte) (src pageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &pdfPages{reader: reader, fonts: make(map[string]*pdf.Font)}, nil
}

// joinPages concatenates page texts in document order, one newline between pages.
// A page that fails to decode contributes an empty string.
func joinPages(ctx context.Context, filename string, src pageSource) (string, error) {
	total := src.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := src.PageText(i)
		if err != nil {
			logger.Get().Warn("Skipping unreadable PDF page",
				zap.String("file", filename), zap.Int("page", i), zap.Error(err))
			text = ""
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

var _ domain.PDFExtractor = (*PDFTextExtractor)(nil)
