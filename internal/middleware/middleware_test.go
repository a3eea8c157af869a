package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/middleware"
	"quizforge/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.ValidationErrors{domain.NewMissingFieldError("files")}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"quiz not found", domain.NewQuizNotFoundError(), http.StatusNotFound, "QUIZ_NOT_FOUND"},
		{"external service", domain.NewExternalServiceError("openai", errors.New("429")), http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR"},
		{"malformed", domain.NewMalformedResponseError(errors.New("eof")), http.StatusBadGateway, "MALFORMED_RESPONSE"},
		{"schema", domain.NewSchemaViolationError("question 1 is missing 'answer'"), http.StatusBadGateway, "SCHEMA_VIOLATION"},
		{"no text", domain.NewNoExtractableTextError(), http.StatusUnprocessableEntity, "NO_EXTRACTABLE_TEXT"},
		{"invalid input", domain.NewInvalidInputError("bad"), http.StatusBadRequest, "INVALID_INPUT"},
		{"fiber", fiber.NewError(http.StatusRequestEntityTooLarge, "too big"), http.StatusRequestEntityTooLarge, "HTTP_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestErrorHandler_ExternalServiceDetails(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error {
		return domain.NewExternalServiceError("openai", errors.New("rate limited")).WithContext("status", 429)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	var body middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "openai", body.Details["service"])
	assert.EqualValues(t, 429, body.Details["status"])
}

func TestSession_AssignsAndKeepsID(t *testing.T) {
	cfg := config.SessionConfig{CookieName: "qf", TTL: time.Hour}
	app := newApp()
	app.Use(middleware.Session(cfg))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(middleware.SessionID(c)) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	id := string(body)
	assert.True(t, util.IsValidULID(id))

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "qf" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, id, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "qf", Value: id})
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, id, string(body))
}

func TestSession_ReplacesForgedID(t *testing.T) {
	app := newApp()
	app.Use(middleware.Session(config.SessionConfig{CookieName: "qf"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(middleware.SessionID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "qf", Value: "../../etc/passwd"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, util.IsValidULID(string(body)))
}

func TestValidateAnswerIndex(t *testing.T) {
	app := newApp()
	app.Put("/answers/:index", middleware.ValidateAnswerIndex(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"index": middleware.AnswerIndex(c)})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/answers/3", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"index":3}`, string(body))

	for _, bad := range []string{"abc", "0", "-2"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/answers/"+bad, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestRequestLogger_PassesThroughErrors(t *testing.T) {
	app := newApp()
	app.Use(middleware.RequestLogger())
	app.Get("/", func(c *fiber.Ctx) error { return domain.NewQuizNotFoundError() })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
