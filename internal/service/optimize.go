package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/code-optimizer/internal/apperror"
	"github.com/sakif/code-optimizer/internal/llm"
	"github.com/sakif/code-optimizer/internal/model"
	"github.com/sakif/code-optimizer/internal/repository"
)

// systemPrompt is the fixed instructional message sent with every
// optimization request. It does not vary per request; only the model,
// temperature, and token budget are configuration.
const systemPrompt = `You are a code optimization expert. Analyze the code and provide optimization suggestions following this structure:

1. Code Analysis:
   - Explain what the code does and its current structure
   - Identify potential issues and inefficiencies
   - Analyze performance (time/space complexity if relevant)

2. Optimization Suggestions:
   - Specific improvements for logic and performance
   - Better coding practices and patterns to use
   - Error handling recommendations

3. Changes Made:
   - List the key changes in the optimized version
   - Explain why these changes make the code better

4. Optimized Code:
   - Provide the improved version with clear formatting and comments

Use markdown for code blocks and keep explanations concise but informative.
IMPORTANT: Always wrap the optimized code in a code block with triple backticks.`

// fencedBlock matches a triple-backtick fenced code block with an optional
// language tag on the opening fence. The first capture group is the block
// body. [\s\S] stands in for "any char including newline" since Go's regexp
// has no dotall flag on character classes.
var fencedBlock = regexp.MustCompile("```[a-zA-Z0-9_+#.-]*\\r?\\n([\\s\\S]*?)```")

// OptimizeService is the core of the application: it builds the prompt,
// makes the single synchronous LLM call, extracts the optimized code from
// the reply, and persists the record; in that order, with no retries and
// no compensation on failure.
type OptimizeService struct {
	client  llm.Client
	history repository.HistoryRepository
	logger  *slog.Logger
}

// NewOptimizeService creates an OptimizeService. The llm.Client is injected
// so tests can substitute a fake with the same call-and-reply contract.
func NewOptimizeService(client llm.Client, history repository.HistoryRepository, logger *slog.Logger) *OptimizeService {
	return &OptimizeService{
		client:  client,
		history: history,
		logger:  logger,
	}
}

// Optimize runs one optimization for the given user and durably records the
// result before returning it.
//
// Two identical calls produce two distinct records (and usually two
// different replies; the provider samples at the configured temperature).
// There is deliberately no dedup and no ordering between concurrent calls.
func (s *OptimizeService) Optimize(ctx context.Context, userID, code, language string) (*model.OptimizationRecord, error) {
	// Validate before any external call is made.
	if code == "" || strings.TrimSpace(language) == "" {
		return nil, apperror.ValidationFailed("code", "missing code or language")
	}
	if userID == "" {
		return nil, apperror.ValidationFailed("user", "user ID is required")
	}

	userPrompt := fmt.Sprintf("Please analyze and optimize this %s code:\n\n%s", language, code)

	reply, err := s.client.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		s.logger.Error("LLM call failed",
			slog.String("userID", userID),
			slog.String("language", language),
			slog.String("error", err.Error()),
		)
		// The provider's message travels to the caller verbatim.
		return nil, apperror.Upstream(err)
	}

	rec := &model.OptimizationRecord{
		UserID:        userID,
		Language:      language,
		OriginalCode:  code,
		OptimizedCode: ExtractCode(reply, code),
		Suggestions:   reply,
	}

	if err := s.history.Create(ctx, rec); err != nil {
		s.logger.Error("failed to persist optimization record",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		// The generated suggestion is lost; the caller must retry the whole
		// call. The LLM request has no provider-side effect to undo.
		return nil, fmt.Errorf("saving optimization record: %w", err)
	}

	s.logger.Info("optimization recorded",
		slog.Int64("id", rec.ID),
		slog.String("userID", userID),
		slog.String("language", language),
		slog.Int("reply_len", len(reply)),
	)

	return rec, nil
}

// ExtractCode returns the trimmed contents of the first fenced code block in
// reply, or fallback unchanged when no fence is present; the caller always
// gets a renderable code value even when the model's output format drifts.
//
// "First match" is the contract even when the reply contains several fenced
// blocks; no attempt is made to guess which block is the final version.
func ExtractCode(reply, fallback string) string {
	m := fencedBlock.FindStringSubmatch(reply)
	if m == nil {
		return fallback
	}
	return strings.TrimSpace(m[1])
}
