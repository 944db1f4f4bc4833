package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/code-optimizer/internal/apperror"
	"github.com/sakif/code-optimizer/internal/model"
	"github.com/sakif/code-optimizer/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user. ID and CreatedAt are filled in here; the
// caller gets them back through the pointer.
//
// The username column carries a UNIQUE constraint, so two concurrent
// registrations for the same name race safely in the database: the loser
// gets the constraint error, which we translate to a Conflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, github_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		nullableGitHubID(user.GitHubID),
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: creating user %s: %w", user.Username, err)
	}

	return nil
}

// GetUserByUsername retrieves a user by username.
// Returns apperror.ErrNotFound when no such user exists.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, username, password_hash, github_id, created_at
		 FROM users WHERE username = ?`, username)
}

// GetUserByID retrieves a user by internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, username, password_hash, github_id, created_at
		 FROM users WHERE id = ?`, id)
}

func (db *DB) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)

	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&githubID,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}

	u.GitHubID = githubID.Int64
	return &u, nil
}

// UpsertGitHub inserts a user on first OAuth login or refreshes the username
// on subsequent ones, keyed by github_id. The internal ID is stable across
// logins.
func (db *DB) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existing model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existing.ID, &existing.CreatedAt)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existing.ID != "" {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET username = ? WHERE id = ?`,
			user.Username, user.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				// The GitHub login collides with an existing password
				// account's username; keep the stored name instead. The
				// stored name then stays stale relative to GitHub until a
				// later login renames past the collision.
				return nil
			}
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, github_id, created_at)
		 VALUES (?, ?, '', ?, ?)`,
		user.ID,
		user.Username,
		user.GitHubID,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

func nullableGitHubID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
// The driver exposes no typed error for this, so we match the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
