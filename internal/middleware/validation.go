package middleware

import (
	"strconv"

	"quizforge/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// AnswerIndexKey holds the parsed :index route parameter.
const AnswerIndexKey = "validated_answer_index"

// ValidateAnswerIndex parses the 1-based :index path parameter.
func ValidateAnswerIndex() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("index")
		index, err := strconv.Atoi(raw)
		if err != nil {
			return domain.ValidationErrors{domain.NewInvalidFormatError("index", raw)}
		}
		if index < 1 {
			return domain.ValidationErrors{domain.NewOutOfRangeError("index", index, 1, domain.MaxQuestionsPerQuiz)}
		}

		c.Locals(AnswerIndexKey, index)
		return c.Next()
	}
}

// AnswerIndex returns the index stored by ValidateAnswerIndex.
func AnswerIndex(c *fiber.Ctx) int {
	index, _ := c.Locals(AnswerIndexKey).(int)
	return index
}
