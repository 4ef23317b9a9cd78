package llm

import (
	"context"
	"testing"

	"github.com/agenthands/sentinel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Providers(t *testing.T) {
	for _, provider := range []string{"openai", "claude", "ollama", "openai-compatible", "OpenAI"} {
		c, err := NewClient(context.Background(), config.LLMConfig{
			Provider: provider,
			Model:    "test-model",
			BaseURL:  "http://localhost:11434",
		})
		require.NoError(t, err, provider)
		assert.IsType(t, &GuardedClient{}, c)
	}
}

func TestNewClient_Unsupported(t *testing.T) {
	_, err := NewClient(context.Background(), config.LLMConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported llm provider")
}
