package domain

import "context"

// ImagePart is an image handed to a vision-capable model.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// CompletionRequest is one chat completion: a system message and a user message
// carrying the prompt text and optional images.
type CompletionRequest struct {
	System      string
	Prompt      string
	Images      []ImagePart
	Model       string
	Temperature float64
	MaxTokens   int
	// JSONOutput asks providers that support it for a bare JSON object.
	JSONOutput bool
}

// QuizModel is the port to the external LLM. It returns the raw completion text.
type QuizModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}
