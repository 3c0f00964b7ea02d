package resolve

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

// NewOpenAICompleter builds the chat model used by SessionDiscoverer.
func NewOpenAICompleter(apiKey, model, baseURL string) (Completer, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key required")
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}
	return m, nil
}
