// Package service contains the business logic layer: validation, rules, and
// orchestration. Services accept primitives and return domain errors; they
// know nothing about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/code-optimizer/internal/apperror"
	"github.com/sakif/code-optimizer/internal/auth"
	"github.com/sakif/code-optimizer/internal/model"
	"github.com/sakif/code-optimizer/internal/repository"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

// invalidCredentials is the single message for every login failure. Unknown
// username and wrong password must be indistinguishable, otherwise the login
// endpoint doubles as a username oracle.
var invalidCredentials = apperror.Unauthorized("invalid username or password")

// AuthService handles registration, login, and profile lookup.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register validates the credentials, hashes the password, and persists a
// new user. A taken username returns apperror.ErrConflict.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("username", "username and password are required")
	}
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}

	// The repository translates the UNIQUE constraint into a Conflict, so a
	// racing duplicate registration fails cleanly too.
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies the credentials and issues a signed access token embedding
// the user ID. Every failure path returns the identical invalidCredentials
// error.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)

	if username == "" || password == "" {
		return "", apperror.ValidationFailed("username", "username and password are required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", invalidCredentials
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return "", invalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return token, nil
}

// Profile returns the user record for the given internal ID.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetUserByID(ctx, userID)
}

// LoginOrRegisterGitHub completes the GitHub OAuth flow: upserts the user by
// GitHub ID (first login creates the account) and issues the same access
// token password login would.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (string, error) {
	if ghUser == nil {
		return "", fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID: ghUser.ID,
		Username: ghUser.Login,
	}

	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return "", fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return token, nil
}
