package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/handler"
	"quizforge/internal/middleware"
	"quizforge/internal/service"
	"quizforge/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Manual Mocks ---

type MockQuizService struct {
	GenerateFromPDFFunc    func(ctx context.Context, sessionID string, files []domain.Upload, params validation.GenerateParams) (*service.GenerateResult, error)
	GenerateFromImagesFunc func(ctx context.Context, sessionID string, files []domain.Upload, mode service.ImageMode, params validation.GenerateParams) (*service.GenerateResult, error)
	GenerateFromTextFunc   func(ctx context.Context, sessionID string, text string, params validation.GenerateParams) (*service.GenerateResult, error)
	GetSessionFunc         func(ctx context.Context, sessionID string) (*domain.QuizSession, error)
	RecordAnswerFunc       func(ctx context.Context, sessionID string, index int, option string) error
	ScoreFunc              func(ctx context.Context, sessionID string) (*domain.ScoreResult, error)
	DownloadFunc           func(ctx context.Context, sessionID string) (string, []byte, error)
	ClearFunc              func(ctx context.Context, sessionID string) error
	PingFunc               func(ctx context.Context) error
}

func (m *MockQuizService) GenerateFromPDF(ctx context.Context, sessionID string, files []domain.Upload, params validation.GenerateParams) (*service.GenerateResult, error) {
	if m.GenerateFromPDFFunc != nil {
		return m.GenerateFromPDFFunc(ctx, sessionID, files, params)
	}
	panic("MockQuizService.GenerateFromPDFFunc not implemented")
}

func (m *MockQuizService) GenerateFromImages(ctx context.Context, sessionID string, files []domain.Upload, mode service.ImageMode, params validation.GenerateParams) (*service.GenerateResult, error) {
	if m.GenerateFromImagesFunc != nil {
		return m.GenerateFromImagesFunc(ctx, sessionID, files, mode, params)
	}
	panic("MockQuizService.GenerateFromImagesFunc not implemented")
}

func (m *MockQuizService) GenerateFromText(ctx context.Context, sessionID string, text string, params validation.GenerateParams) (*service.GenerateResult, error) {
	if m.GenerateFromTextFunc != nil {
		return m.GenerateFromTextFunc(ctx, sessionID, text, params)
	}
	panic("MockQuizService.GenerateFromTextFunc not implemented")
}

func (m *MockQuizService) GetSession(ctx context.Context, sessionID string) (*domain.QuizSession, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	panic("MockQuizService.GetSessionFunc not implemented")
}

func (m *MockQuizService) RecordAnswer(ctx context.Context, sessionID string, index int, option string) error {
	if m.RecordAnswerFunc != nil {
		return m.RecordAnswerFunc(ctx, sessionID, index, option)
	}
	panic("MockQuizService.RecordAnswerFunc not implemented")
}

func (m *MockQuizService) Score(ctx context.Context, sessionID string) (*domain.ScoreResult, error) {
	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, sessionID)
	}
	panic("MockQuizService.ScoreFunc not implemented")
}

func (m *MockQuizService) Download(ctx context.Context, sessionID string) (string, []byte, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, sessionID)
	}
	panic("MockQuizService.DownloadFunc not implemented")
}

func (m *MockQuizService) Clear(ctx context.Context, sessionID string) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, sessionID)
	}
	panic("MockQuizService.ClearFunc not implemented")
}

func (m *MockQuizService) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	panic("MockQuizService.PingFunc not implemented")
}

const cookieName = "quizforge_session"

func setupApp(svc service.QuizService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	h := handler.NewQuizHandler(svc, config.QuizConfig{DefaultQuestions: 5, MaxQuestions: 50})
	handler.RegisterRoutes(app, h, config.SessionConfig{CookieName: cookieName, TTL: time.Hour})
	return app
}

func sampleResult() *service.GenerateResult {
	return &service.GenerateResult{
		Quiz: &domain.Quiz{Questions: []domain.Question{{
			Question: "What is the mitochondria known as?",
			Options:  []string{"The powerhouse of the cell", "The nucleus", "The ribosome", "The cell wall"},
			Answer:   "The powerhouse of the cell",
		}}},
		Source:   domain.SourcePDF,
		Model:    "gpt-4o-mini",
		Warnings: []string{},
	}
}

type formFile struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestGenerateFromPDF(t *testing.T) {
	var gotFiles []domain.Upload
	var gotParams validation.GenerateParams
	var gotSession string
	svc := &MockQuizService{
		GenerateFromPDFFunc: func(ctx context.Context, sessionID string, files []domain.Upload, params validation.GenerateParams) (*service.GenerateResult, error) {
			gotSession, gotFiles, gotParams = sessionID, files, params
			return sampleResult(), nil
		},
	}
	app := setupApp(svc)

	req := multipartRequest(t, "/api/quizzes/pdf",
		map[string]string{"difficulty": "hard", "count": "7", "guidance": "focus on enzymes", "temperature": "0.3"},
		formFile{"a.pdf", []byte("%PDF-1.4 a")}, formFile{"b.pdf", []byte("%PDF-1.4 b")},
	)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NotEmpty(t, gotSession)
	require.Len(t, gotFiles, 2)
	assert.Equal(t, "a.pdf", gotFiles[0].Filename)
	assert.Equal(t, []byte("%PDF-1.4 b"), gotFiles[1].Data)
	assert.Equal(t, "hard", gotParams.Difficulty)
	assert.Equal(t, 7, gotParams.Count)
	assert.Equal(t, "focus on enzymes", gotParams.Guidance)
	require.NotNil(t, gotParams.Temperature)
	assert.InDelta(t, 0.3, *gotParams.Temperature, 1e-9)

	body := decode(t, resp)
	assert.Equal(t, "pdf", body["source"])
	assert.Equal(t, "gpt-4o-mini", body["model"])
	questions := body["questions"].([]interface{})
	require.Len(t, questions, 1)
	assert.NotContains(t, questions[0], "answer")
}

func TestGenerateFromPDF_DefaultsAndBadNumbers(t *testing.T) {
	var gotParams validation.GenerateParams
	svc := &MockQuizService{
		GenerateFromPDFFunc: func(ctx context.Context, sessionID string, files []domain.Upload, params validation.GenerateParams) (*service.GenerateResult, error) {
			gotParams = params
			return sampleResult(), nil
		},
	}
	app := setupApp(svc)

	resp, err := app.Test(multipartRequest(t, "/api/quizzes/pdf", nil, formFile{"a.pdf", []byte("%PDF-1.4")}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, gotParams.Count)
	assert.Nil(t, gotParams.Temperature)

	resp, err = app.Test(multipartRequest(t, "/api/quizzes/pdf", map[string]string{"count": "many", "temperature": "hot"}, formFile{"a.pdf", []byte("%PDF-1.4")}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Len(t, body["errors"], 2)
}

func TestGenerateFromPDF_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no file", domain.ValidationErrors{domain.NewMissingFieldError("files")}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed", domain.NewMalformedResponseError(errors.New("eof")), http.StatusBadGateway, "MALFORMED_RESPONSE"},
		{"provider", domain.NewExternalServiceError("openai", errors.New("401")), http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR"},
		{"no text", domain.NewNoExtractableTextError(), http.StatusUnprocessableEntity, "NO_EXTRACTABLE_TEXT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(&MockQuizService{
				GenerateFromPDFFunc: func(context.Context, string, []domain.Upload, validation.GenerateParams) (*service.GenerateResult, error) {
					return nil, tt.err
				},
			})
			resp, err := app.Test(multipartRequest(t, "/api/quizzes/pdf", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decode(t, resp)["code"])
		})
	}
}

func TestGenerateFromImages_Mode(t *testing.T) {
	var gotMode service.ImageMode
	app := setupApp(&MockQuizService{
		GenerateFromImagesFunc: func(ctx context.Context, sessionID string, files []domain.Upload, mode service.ImageMode, params validation.GenerateParams) (*service.GenerateResult, error) {
			gotMode = mode
			res := sampleResult()
			res.Source = domain.SourceImages
			res.Warnings = []string{"No text detected in photo.png"}
			return res, nil
		},
	})

	resp, err := app.Test(multipartRequest(t, "/api/quizzes/images", map[string]string{"mode": "vision"}, formFile{"photo.png", []byte("\x89PNG\r\n\x1a\n")}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, service.ImageModeVision, gotMode)
	body := decode(t, resp)
	assert.Equal(t, []interface{}{"No text detected in photo.png"}, body["warnings"])

	resp, err = app.Test(multipartRequest(t, "/api/quizzes/images", map[string]string{"mode": "camera"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateFromText(t *testing.T) {
	var gotText string
	var gotParams validation.GenerateParams
	app := setupApp(&MockQuizService{
		GenerateFromTextFunc: func(ctx context.Context, sessionID string, text string, params validation.GenerateParams) (*service.GenerateResult, error) {
			gotText, gotParams = text, params
			res := sampleResult()
			res.Source = domain.SourceText
			return res, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes/text",
		strings.NewReader(`{"text":"The mitochondria is the powerhouse of the cell.","difficulty":"medium","count":3,"model":"gpt-4o"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "The mitochondria is the powerhouse of the cell.", gotText)
	assert.Equal(t, 3, gotParams.Count)
	assert.Equal(t, "medium", gotParams.Difficulty)
	assert.Equal(t, "gpt-4o", gotParams.Model)

	req = httptest.NewRequest(http.MethodPost, "/api/quizzes/text", strings.NewReader(`{"text":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	_, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 5, gotParams.Count, "missing count falls back to the default")
}

func TestSessionEndpoints(t *testing.T) {
	quiz := sampleResult().Quiz
	var recorded []string
	svc := &MockQuizService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*domain.QuizSession, error) {
			s := domain.NewQuizSession(sessionID)
			s.SetQuiz(quiz, domain.SourcePDF)
			s.RecordAnswer(1, "The nucleus")
			return s, nil
		},
		RecordAnswerFunc: func(ctx context.Context, sessionID string, index int, option string) error {
			recorded = append(recorded, option)
			assert.Equal(t, 1, index)
			return nil
		},
		ScoreFunc: func(ctx context.Context, sessionID string) (*domain.ScoreResult, error) {
			return &domain.ScoreResult{Correct: 1, Total: 1, Details: []domain.QuestionResult{{Index: 1, Correct: true, Answer: "x", Chosen: "x"}}}, nil
		},
		DownloadFunc: func(ctx context.Context, sessionID string) (string, []byte, error) {
			return "quiz_from_pdf.json", []byte("{\n  \"questions\": []\n}"), nil
		},
		ClearFunc: func(ctx context.Context, sessionID string) error { return nil },
	}
	app := setupApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/session/quiz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, map[string]interface{}{"1": "The nucleus"}, body["answers"])

	req := httptest.NewRequest(http.MethodPut, "/api/session/answers/1", strings.NewReader(`{"option":"The powerhouse of the cell"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"The powerhouse of the cell"}, recorded)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/session/score", nil))
	require.NoError(t, err)
	body = decode(t, resp)
	assert.EqualValues(t, 1, body["correct"])
	assert.EqualValues(t, 1, body["total"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/session/quiz/download", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="quiz_from_pdf.json"`, resp.Header.Get("Content-Disposition"))
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "{\n  \"questions\": []\n}", string(data))

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/session/quiz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestGetQuiz_NoActiveQuiz(t *testing.T) {
	app := setupApp(&MockQuizService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*domain.QuizSession, error) {
			return domain.NewQuizSession(sessionID), nil
		},
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/session/quiz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "QUIZ_NOT_FOUND", decode(t, resp)["code"])
}

func TestSessionCookieIsolatesRequests(t *testing.T) {
	var seen []string
	app := setupApp(&MockQuizService{
		ClearFunc: func(ctx context.Context, sessionID string) error {
			seen = append(seen, sessionID)
			return nil
		},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/session/quiz", nil))
	require.NoError(t, err)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodDelete, "/api/session/quiz", nil)
	req.AddCookie(cookie)
	_, err = app.Test(req)
	require.NoError(t, err)

	_, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/session/quiz", nil))
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, seen[0], seen[1])
	assert.NotEqual(t, seen[0], seen[2])
}

func TestHealth(t *testing.T) {
	healthy := true
	app := setupApp(&MockQuizService{
		PingFunc: func(ctx context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("redis down")
		},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	healthy = false
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unavailable", decode(t, resp)["status"])
}
