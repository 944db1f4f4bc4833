package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/code-optimizer/internal/apperror"
	"github.com/sakif/code-optimizer/internal/model"
)

// fakeLLM implements llm.Client with a canned reply, recording the prompts
// it receives.
type fakeLLM struct {
	reply string
	err   error

	calls        int
	systemPrompt string
	userPrompt   string
}

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.userPrompt = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeHistoryRepo is an in-memory implementation of
// repository.HistoryRepository.
type fakeHistoryRepo struct {
	records   []model.OptimizationRecord
	nextID    int64
	createErr error
	listErr   error
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{nextID: 1}
}

func (f *fakeHistoryRepo) Create(ctx context.Context, rec *model.OptimizationRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	rec.ID = f.nextID
	f.nextID++
	rec.CreatedAt = time.Now().UTC()
	// prepend so the slice stays newest-first like the real query
	f.records = append([]model.OptimizationRecord{*rec}, f.records...)
	return nil
}

func (f *fakeHistoryRepo) ListByUser(ctx context.Context, userID string) ([]model.OptimizationRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.OptimizationRecord, 0)
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) Delete(ctx context.Context, id int64, userID string) error {
	for i, rec := range f.records {
		if rec.ID == id && rec.UserID == userID {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("history record", "?")
}

func newTestOptimizeService(client *fakeLLM, repo *fakeHistoryRepo) *OptimizeService {
	return NewOptimizeService(client, repo, testLogger())
}

func TestOptimize(t *testing.T) {
	client := &fakeLLM{reply: "Some analysis.\n\n```python\nprint(\"hi\")\n```\n\nAll done."}
	repo := newFakeHistoryRepo()
	svc := newTestOptimizeService(client, repo)

	rec, err := svc.Optimize(context.Background(), "user-1", "print('hi')", "python")
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if rec.ID == 0 {
		t.Error("record was not persisted before returning")
	}
	if rec.OptimizedCode != `print("hi")` {
		t.Errorf("OptimizedCode = %q, want extracted block body", rec.OptimizedCode)
	}
	if rec.Suggestions != client.reply {
		t.Error("Suggestions must carry the full reply verbatim")
	}
	if rec.OriginalCode != "print('hi')" {
		t.Errorf("OriginalCode = %q", rec.OriginalCode)
	}
	if len(repo.records) != 1 {
		t.Fatalf("got %d stored records, want 1", len(repo.records))
	}
}

func TestOptimize_PromptShape(t *testing.T) {
	client := &fakeLLM{reply: "```\nx\n```"}
	svc := newTestOptimizeService(client, newFakeHistoryRepo())

	if _, err := svc.Optimize(context.Background(), "user-1", "x = 1", "python"); err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if !strings.Contains(client.systemPrompt, "code optimization expert") {
		t.Error("system prompt missing the optimization instructions")
	}
	if !strings.Contains(client.userPrompt, "python") || !strings.Contains(client.userPrompt, "x = 1") {
		t.Errorf("user prompt missing language or code: %q", client.userPrompt)
	}
}

func TestOptimize_Validation(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		code     string
		language string
	}{
		{"empty code", "user-1", "", "python"},
		{"empty language", "user-1", "x = 1", ""},
		{"whitespace language", "user-1", "x = 1", "  "},
		{"missing user", "", "x = 1", "python"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeLLM{reply: "unused"}
			svc := newTestOptimizeService(client, newFakeHistoryRepo())

			_, err := svc.Optimize(context.Background(), tt.userID, tt.code, tt.language)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
			if client.calls != 0 {
				t.Error("LLM must not be called when validation fails")
			}
		})
	}
}

func TestOptimize_UpstreamErrorSurvivesVerbatim(t *testing.T) {
	client := &fakeLLM{err: errors.New("llm: Rate limit reached for gpt-4")}
	repo := newFakeHistoryRepo()
	svc := newTestOptimizeService(client, repo)

	_, err := svc.Optimize(context.Background(), "user-1", "x = 1", "python")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an *apperror.AppError", err)
	}
	if !strings.Contains(appErr.Message, "Rate limit reached") {
		t.Errorf("provider message lost: %q", appErr.Message)
	}
	if len(repo.records) != 0 {
		t.Error("nothing may be persisted when the LLM call fails")
	}
}

func TestOptimize_PersistenceFailure(t *testing.T) {
	client := &fakeLLM{reply: "```\nx\n```"}
	repo := newFakeHistoryRepo()
	repo.createErr = errors.New("disk full")
	svc := newTestOptimizeService(client, repo)

	_, err := svc.Optimize(context.Background(), "user-1", "x = 1", "python")
	if err == nil {
		t.Fatal("Optimize() should fail when the record cannot be saved")
	}
	// A storage failure is an internal error, not an upstream one.
	if errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("persistence failure mislabeled as upstream: %v", err)
	}
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{
			name:  "language-tagged fence",
			reply: "Intro.\n```python\nprint('hi')\n```\nOutro.",
			want:  "print('hi')",
		},
		{
			name:  "bare fence",
			reply: "```\nx = 1\n```",
			want:  "x = 1",
		},
		{
			name:  "first of several blocks wins",
			reply: "```go\nfirst()\n```\ntext\n```go\nsecond()\n```",
			want:  "first()",
		},
		{
			name:  "crlf after fence",
			reply: "```python\r\nprint('hi')\r\n```",
			want:  "print('hi')",
		},
		{
			name:  "surrounding whitespace trimmed",
			reply: "```\n\n  x = 1\n\n```",
			want:  "x = 1",
		},
		{
			name:  "multiline body preserved",
			reply: "```go\nfunc a() {\n\treturn\n}\n```",
			want:  "func a() {\n\treturn\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCode(tt.reply, "fallback"); got != tt.want {
				t.Errorf("ExtractCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractCode_FallbackWhenNoFence(t *testing.T) {
	original := "def f():\n    pass"
	if got := ExtractCode("The code is already optimal.", original); got != original {
		t.Errorf("ExtractCode() = %q, want the original code back", got)
	}
	if got := ExtractCode("", original); got != original {
		t.Errorf("ExtractCode(\"\") = %q, want the original code back", got)
	}
}
