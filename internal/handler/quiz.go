package handler

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/middleware"
	"quizforge/internal/service"
	"quizforge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// filesField is the multipart field carrying uploads.
const filesField = "files"

// QuizHandler handles quiz generation and session HTTP requests
type QuizHandler struct {
	service      service.QuizService
	defaultCount int
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService, quizCfg config.QuizConfig) *QuizHandler {
	return &QuizHandler{
		service:      service,
		defaultCount: quizCfg.DefaultQuestions,
	}
}

// GenerateFromPDF handles POST /api/quizzes/pdf
func (h *QuizHandler) GenerateFromPDF(c *fiber.Ctx) error {
	params, files, err := h.parseMultipart(c)
	if err != nil {
		return err
	}

	result, err := h.service.GenerateFromPDF(c.UserContext(), middleware.SessionID(c), files, params)
	if err != nil {
		return err
	}
	return c.JSON(newGenerateResponse(result))
}

// GenerateFromImages handles POST /api/quizzes/images
func (h *QuizHandler) GenerateFromImages(c *fiber.Ctx) error {
	mode, err := service.ParseImageMode(c.FormValue("mode"))
	if err != nil {
		return domain.ValidationErrors{domain.NewInvalidFormatError("mode", c.FormValue("mode"))}
	}
	params, files, err := h.parseMultipart(c)
	if err != nil {
		return err
	}

	result, err := h.service.GenerateFromImages(c.UserContext(), middleware.SessionID(c), files, mode, params)
	if err != nil {
		return err
	}
	return c.JSON(newGenerateResponse(result))
}

// GenerateFromText handles POST /api/quizzes/text
func (h *QuizHandler) GenerateFromText(c *fiber.Ctx) error {
	var req dto.GenerateTextRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("request body must be a JSON object")
	}

	count := h.defaultCount
	if req.Count != nil {
		count = *req.Count
	}
	params := validation.GenerateParams{
		Difficulty:  req.Difficulty,
		Count:       count,
		Guidance:    req.Guidance,
		Model:       req.Model,
		Temperature: req.Temperature,
	}

	result, err := h.service.GenerateFromText(c.UserContext(), middleware.SessionID(c), req.Text, params)
	if err != nil {
		return err
	}
	return c.JSON(newGenerateResponse(result))
}

// parseMultipart reads the generation controls and every file of the files field.
func (h *QuizHandler) parseMultipart(c *fiber.Ctx) (validation.GenerateParams, []domain.Upload, error) {
	var errs domain.ValidationErrors
	params := validation.GenerateParams{
		Difficulty: c.FormValue("difficulty"),
		Count:      h.defaultCount,
		Guidance:   c.FormValue("guidance"),
		Model:      c.FormValue("model"),
	}

	if raw := strings.TrimSpace(c.FormValue("count")); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, domain.NewInvalidFormatError("count", raw))
		}
		params.Count = count
	}
	if raw := strings.TrimSpace(c.FormValue("temperature")); raw != "" {
		temp, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, domain.NewInvalidFormatError("temperature", raw))
		} else {
			params.Temperature = &temp
		}
	}
	if len(errs) > 0 {
		return params, nil, errs
	}

	form, err := c.MultipartForm()
	if err != nil {
		return params, nil, domain.ValidationErrors{domain.NewMissingFieldError(filesField)}
	}
	uploads := make([]domain.Upload, 0, len(form.File[filesField]))
	for _, fh := range form.File[filesField] {
		upload, err := readUpload(fh)
		if err != nil {
			return params, nil, domain.NewInvalidInputError("could not read uploaded file " + fh.Filename)
		}
		uploads = append(uploads, upload)
	}
	return params, uploads, nil
}

func readUpload(fh *multipart.FileHeader) (domain.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Upload{}, err
	}
	return domain.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func newGenerateResponse(result *service.GenerateResult) dto.GenerateResponse {
	return dto.GenerateResponse{
		QuizResponse: dto.NewQuizResponse(result.Quiz, result.Source, nil),
		Model:        result.Model,
		Warnings:     result.Warnings,
	}
}
