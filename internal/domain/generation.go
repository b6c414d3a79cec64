package domain

import "context"

// Generator is the text generation contract. Responses carry no
// structural guarantee; all structure is imposed by the validation layer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries the raw model output and token usage.
type GenerationResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}
