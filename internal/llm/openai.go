package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// compile-time check that *OpenAIClient implements Client
var _ Client = (*OpenAIClient)(nil)

// OpenAIClient implements Client against the OpenAI chat-completions API
// (or any compatible endpoint selected via Config.BaseURL).
//
// Each Complete call is a single synchronous request: no retries, no
// batching, no caching. Transport, auth, and quota failures come back as
// errors carrying the provider's own message, which the caller is expected
// to surface rather than rewrite.
type OpenAIClient struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIClient creates a client from the given config. The only timeout
// in play is the transport timeout configured here.
func NewOpenAIClient(cfg Config, logger *slog.Logger) *OpenAIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig("").Timeout
	}
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// chatMessage is one entry in the messages array.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the chat-completions request body.
//
// Temperature is always sent: 0 is a valid setting (deterministic sampling)
// and omitting it would make the provider fall back to its own default.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// chatResponse is the subset of the response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends the system and user messages and returns the assistant
// reply from choices[0].
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("llm: API key not configured")
	}

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llm: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Prefer the provider's structured error message when it parses.
		var errResp chatResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			return "", fmt.Errorf("llm: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("llm: request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("llm: parsing response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: no completion returned")
	}

	// The raw reply is returned untouched; the caller stores it verbatim.
	reply := parsed.Choices[0].Message.Content

	c.logger.Debug("chat completion finished",
		slog.String("model", c.cfg.Model),
		slog.Duration("duration", time.Since(start)),
		slog.Int("reply_len", len(reply)),
	)

	return reply, nil
}
