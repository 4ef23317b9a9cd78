package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/sentinel/internal/config"
)

// NewClient builds the provider client named in cfg and wraps it with the
// configured rate limit and per-call timeout.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	provider := strings.ToLower(cfg.Provider)

	var base LLMClient
	switch provider {
	case "openai":
		base = NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL)

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		base = c

	case "claude", "anthropic":
		base = NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL)

	case "ollama":
		c, err := NewOllamaClient(cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		base = c

	case "openai-compatible":
		// vLLM, LM Studio and Ollama's /v1 endpoint all speak the OpenAI protocol
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "unused"
		}
		base = NewOpenAIClient(apiKey, cfg.Model, baseURL)

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}

	return Wrap(base, cfg.RatePerSecond, cfg.Burst, cfg.Timeout.Duration), nil
}
