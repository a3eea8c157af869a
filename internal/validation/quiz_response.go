package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"quizforge/internal/domain"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// QuizSchema is the JSON Schema every model reply must satisfy.
const QuizSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["question", "options", "answer"],
        "properties": {
          "question": {"type": "string", "minLength": 1},
          "options": {
            "type": "array",
            "minItems": 4,
            "maxItems": 4,
            "items": {"type": "string"}
          },
          "answer": {"type": "string"}
        }
      }
    }
  }
}`

const quizSchemaURL = "schema://quiz.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func quizSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(QuizSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse quiz schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(quizSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add quiz schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(quizSchemaURL)
	})
	return compiled, compileErr
}

var errNoJSONObject = errors.New("no JSON object found in model output")

// ParseQuiz turns a raw model reply into a validated Quiz.
// Unparseable text fails with MALFORMED_RESPONSE; structurally wrong JSON fails
// with SCHEMA_VIOLATION. The quiz is accepted or rejected as a whole.
func ParseQuiz(raw string) (*domain.Quiz, error) {
	body, doc, err := decodeLenient(raw)
	if err != nil {
		return nil, domain.NewMalformedResponseError(err)
	}

	if err := checkStructure(doc); err != nil {
		return nil, err
	}

	schema, err := quizSchema()
	if err != nil {
		return nil, domain.NewInternalError("quiz schema unavailable", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, domain.NewSchemaViolationError(firstLine(err.Error()))
	}

	var quiz domain.Quiz
	if err := json.Unmarshal(body, &quiz); err != nil {
		return nil, domain.NewSchemaViolationError(err.Error())
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// decodeLenient parses the trimmed text, falling back to the span between the
// first '{' and the last '}'.
func decodeLenient(raw string) ([]byte, interface{}, error) {
	s := strings.TrimSpace(raw)

	var doc interface{}
	if err := json.Unmarshal([]byte(s), &doc); err == nil {
		return []byte(s), doc, nil
	}

	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, nil, errNoJSONObject
	}
	body := []byte(s[start : end+1])
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}
	return body, doc, nil
}

var requiredKeys = []string{"question", "options", "answer"}

// checkStructure reports missing keys and option-count problems with precise messages.
func checkStructure(doc interface{}) error {
	root, ok := doc.(map[string]interface{})
	if !ok {
		return domain.NewSchemaViolationError("top-level value must be a JSON object")
	}
	rawQuestions, ok := root["questions"]
	if !ok {
		return domain.NewSchemaViolationError("missing 'questions' key")
	}
	questions, ok := rawQuestions.([]interface{})
	if !ok {
		return domain.NewSchemaViolationError("'questions' must be an array")
	}
	if len(questions) == 0 {
		return domain.NewSchemaViolationError("'questions' must be a non-empty array")
	}

	for i, rawItem := range questions {
		n := i + 1
		item, ok := rawItem.(map[string]interface{})
		if !ok {
			return domain.NewSchemaViolationError(fmt.Sprintf("question %d must be an object", n))
		}
		for _, key := range requiredKeys {
			if _, ok := item[key]; !ok {
				return domain.NewSchemaViolationError(fmt.Sprintf("question %d is missing '%s'", n, key))
			}
		}
		options, ok := item["options"].([]interface{})
		if !ok {
			return domain.NewSchemaViolationError(fmt.Sprintf("question %d 'options' must be an array", n))
		}
		if len(options) != domain.OptionsPerQuestion {
			return domain.NewSchemaViolationError(fmt.Sprintf("question %d must have exactly %d options, got %d", n, domain.OptionsPerQuestion, len(options)))
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
