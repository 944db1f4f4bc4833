// Package repository defines the storage interfaces the services depend on.
// The sqlite subpackage provides the real implementation; tests use fakes.
package repository

import (
	"context"

	"github.com/sakif/code-optimizer/internal/model"
)

type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict when the
	// username is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByUsername returns apperror.ErrNotFound when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// UpsertGitHub inserts or refreshes a user keyed by GitHub ID.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

type HistoryRepository interface {
	Create(ctx context.Context, rec *model.OptimizationRecord) error
	// ListByUser returns the caller's records newest-created-first.
	ListByUser(ctx context.Context, userID string) ([]model.OptimizationRecord, error)
	// Delete removes the record with the given id owned by userID. A missing
	// record and a record owned by someone else both return
	// apperror.ErrNotFound; deliberately indistinguishable.
	Delete(ctx context.Context, id int64, userID string) error
}
