package classify

import (
	"context"
)

type MockLLMClient struct {
	Response string
	Err      error
	Panic    bool
	Calls    int
	Prompt   string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Calls++
	m.Prompt = prompt
	if m.Panic {
		panic("provider exploded")
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
