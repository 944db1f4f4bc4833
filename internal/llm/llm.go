// Package llm talks to an OpenAI-compatible chat-completions endpoint.
//
// The Client interface is what the rest of the application depends on; the
// server wires in OpenAIClient and tests substitute a fake with the same
// call-and-reply contract.
package llm

import (
	"context"
	"time"
)

// Client sends a two-message (system + user) chat completion and returns the
// assistant's reply text.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds the knobs for the chat-completions request. Temperature is the
// provider's sampling randomness in [0,2]; MaxTokens caps the reply length.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultConfig returns the defaults the service ships with.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:      apiKey,
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4",
		Temperature: 0.7,
		MaxTokens:   2000,
		Timeout:     120 * time.Second,
	}
}
