package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text content.
var ErrEmptyResponse = errors.New("llm: empty response")

// systemPrompt is sent by providers that take a separate system instruction.
const systemPrompt = "You are a disaster detection assistant. Respond with a single JSON object only."

// temperature is the sampling temperature for classification calls.
const temperature = 0.1

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
