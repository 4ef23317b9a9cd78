package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

type OllamaClient struct {
	client *ollama.Client
	model  string
}

// NewOllamaClient talks to the native Ollama API. An empty baseURL uses OLLAMA_HOST.
func NewOllamaClient(modelName string, baseURL string) (*OllamaClient, error) {
	var client *ollama.Client
	if baseURL == "" {
		c, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1"))
		if err != nil {
			return nil, fmt.Errorf("invalid ollama base url: %w", err)
		}
		client = ollama.NewClient(u, http.DefaultClient)
	}

	return &OllamaClient{client: client, model: modelName}, nil
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	var response strings.Builder
	err := c.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": temperature,
		},
	}, func(res ollama.GenerateResponse) error {
		response.WriteString(res.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	out := strings.TrimSpace(thinkBlock.ReplaceAllString(response.String(), ""))
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
