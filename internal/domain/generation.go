package domain

import "context"

// Generator is the generative text model contract (Gemini via its OpenAI-compatible API).
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Generation is one completed model call.
type Generation struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
