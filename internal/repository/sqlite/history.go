package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/code-optimizer/internal/apperror"
	"github.com/sakif/code-optimizer/internal/model"
	"github.com/sakif/code-optimizer/internal/repository"
)

// compile-time check that *DB implements repository.HistoryRepository
var _ repository.HistoryRepository = (*DB)(nil)

// Create inserts a new optimization record. The auto-increment ID and the
// creation timestamp are written back into rec.
func (db *DB) Create(ctx context.Context, rec *model.OptimizationRecord) error {
	rec.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO history
		   (user_id, language, original_code, optimized_code, optimization_suggestions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UserID,
		rec.Language,
		rec.OriginalCode,
		rec.OptimizedCode,
		rec.Suggestions,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating history record for user %s: %w", rec.UserID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading history record id: %w", err)
	}
	rec.ID = id

	return nil
}

// ListByUser returns all of userID's records, newest first. The id tiebreak
// keeps the order stable when two records share a timestamp; the later
// insert wins.
func (db *DB) ListByUser(ctx context.Context, userID string) ([]model.OptimizationRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, language, original_code, optimized_code,
		        optimization_suggestions, created_at
		 FROM history
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing history for user %s: %w", userID, err)
	}
	defer rows.Close()

	records := make([]model.OptimizationRecord, 0)
	for rows.Next() {
		var r model.OptimizationRecord
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Language, &r.OriginalCode,
			&r.OptimizedCode, &r.Suggestions, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning history row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating history: %w", err)
	}

	return records, nil
}

// Delete removes the record with the given id owned by userID. Zero rows
// affected means either the record doesn't exist or belongs to someone else;
// both come back as NotFound so callers can't probe other users' records.
func (db *DB) Delete(ctx context.Context, id int64, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM history WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting history record %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("history record", strconv.FormatInt(id, 10))
	}

	return nil
}
