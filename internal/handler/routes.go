package handler

import (
	"quizforge/internal/config"
	"quizforge/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the API on app.
func RegisterRoutes(app *fiber.App, h *QuizHandler, sessionCfg config.SessionConfig) {
	app.Get("/health", h.Health)

	api := app.Group("/api", middleware.Session(sessionCfg))

	quizzes := api.Group("/quizzes")
	quizzes.Post("/pdf", h.GenerateFromPDF)
	quizzes.Post("/images", h.GenerateFromImages)
	quizzes.Post("/text", h.GenerateFromText)

	session := api.Group("/session")
	session.Get("/quiz", h.GetQuiz)
	session.Get("/quiz/download", h.Download)
	session.Delete("/quiz", h.Clear)
	session.Put("/answers/:index", middleware.ValidateAnswerIndex(), h.RecordAnswer)
	session.Post("/score", h.Score)
}
