package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/code-optimizer/internal/apperror"
	"github.com/sakif/code-optimizer/internal/model"
	"github.com/sakif/code-optimizer/internal/repository"
)

// HistoryService exposes a user's optimization history.
type HistoryService struct {
	repo   repository.HistoryRepository
	logger *slog.Logger
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(repo repository.HistoryRepository, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		repo:   repo,
		logger: logger,
	}
}

// List returns all records owned by userID, newest-created-first. There is
// no pagination; the history of a single user stays small.
func (s *HistoryService) List(ctx context.Context, userID string) ([]model.OptimizationRecord, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("user", "user ID is required")
	}

	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list history",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing history: %w", err)
	}

	return records, nil
}

// Delete removes exactly one record identified by (id, userID). A record
// that doesn't exist and a record owned by another user both return
// apperror.ErrNotFound.
func (s *HistoryService) Delete(ctx context.Context, id int64, userID string) error {
	if userID == "" {
		return apperror.ValidationFailed("user", "user ID is required")
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("history record deleted",
		slog.Int64("id", id),
		slog.String("userID", userID),
	)
	return nil
}
