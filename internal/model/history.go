package model

import "time"

// OptimizationRecord is the persisted result of one optimization call.
//
// Suggestions holds the full raw LLM reply verbatim; it usually contains the
// optimized code again inside a fenced block, and that duplication is
// intentional: the record stands on its own even if extraction ever changes.
//
// Records are immutable after creation. The JSON tags match the wire contract
// of GET /history exactly.
type OptimizationRecord struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"-"`
	Language      string    `json:"language"`
	OriginalCode  string    `json:"original_code"`
	OptimizedCode string    `json:"optimized_code"`
	Suggestions   string    `json:"optimization_suggestions"`
	CreatedAt     time.Time `json:"created_at"`
}
