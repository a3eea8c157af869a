package handler

import (
	"fmt"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetQuiz handles GET /api/session/quiz
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	if !session.HasQuiz() {
		return domain.NewQuizNotFoundError()
	}
	return c.JSON(dto.NewQuizResponse(session.Quiz, session.Source, session.Answers))
}

// RecordAnswer handles PUT /api/session/answers/:index
func (h *QuizHandler) RecordAnswer(c *fiber.Ctx) error {
	var req dto.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("request body must be a JSON object")
	}

	if err := h.service.RecordAnswer(c.UserContext(), middleware.SessionID(c), middleware.AnswerIndex(c), req.Option); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Score handles POST /api/session/score
func (h *QuizHandler) Score(c *fiber.Ctx) error {
	result, err := h.service.Score(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.ScoreResponse{
		Correct: result.Correct,
		Total:   result.Total,
		Details: result.Details,
	})
}

// Download handles GET /api/session/quiz/download
func (h *QuizHandler) Download(c *fiber.Ctx) error {
	name, data, err := h.service.Download(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(data)
}

// Clear handles DELETE /api/session/quiz
func (h *QuizHandler) Clear(c *fiber.Ctx) error {
	if err := h.service.Clear(c.UserContext(), middleware.SessionID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Health handles GET /health
func (h *QuizHandler) Health(c *fiber.Ctx) error {
	if err := h.service.Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.HealthResponse{Status: "unavailable"})
	}
	return c.JSON(dto.HealthResponse{Status: "ok"})
}
