package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quizforge/internal/config"
	"quizforge/internal/domain"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

const textDetection = "TEXT_DETECTION"

// VisionOCR implements domain.OCRService with the Cloud Vision images:annotate endpoint.
type VisionOCR struct {
	svc *vision.Service
}

func NewVisionOCR(ctx context.Context, cfg config.OCRConfig) (*VisionOCR, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vision API key is required")
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create Vision client: %w", err)
	}
	return &VisionOCR{svc: svc}, nil
}

func (v *VisionOCR) DetectText(ctx context.Context, image domain.Upload) (*domain.OCRResult, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image.Data)},
			Features: []*vision.Feature{{Type: textDetection}},
		}},
	}

	resp, err := v.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, domain.NewExternalServiceError("vision", fmt.Errorf("status %d: %s", gerr.Code, rawBody(gerr)))
		}
		return nil, domain.NewExternalServiceError("vision", err)
	}
	if len(resp.Responses) == 0 {
		return nil, domain.NewExternalServiceError("vision", fmt.Errorf("unexpected response: %s", dump(resp)))
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Code != 0 {
		return nil, domain.NewExternalServiceError("vision", fmt.Errorf("code %d: %s", r.Error.Code, r.Error.Message))
	}
	if r.FullTextAnnotation == nil || strings.TrimSpace(r.FullTextAnnotation.Text) == "" {
		return &domain.OCRResult{}, nil
	}
	return &domain.OCRResult{Text: r.FullTextAnnotation.Text, Found: true}, nil
}

func rawBody(gerr *googleapi.Error) string {
	if gerr.Body != "" {
		return gerr.Body
	}
	return gerr.Message
}

func dump(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

var _ domain.OCRService = (*VisionOCR)(nil)
