package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/code-optimizer/internal/apperror"
	"github.com/sakif/code-optimizer/internal/auth"
	"github.com/sakif/code-optimizer/internal/handler"
	"github.com/sakif/code-optimizer/internal/model"
	"github.com/sakif/code-optimizer/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memUserRepo is an in-memory repository.UserRepository.
type memUserRepo struct {
	byID       map[string]*model.User
	byUsername map[string]*model.User
	byGHID     map[int64]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:       make(map[string]*model.User),
		byUsername: make(map[string]*model.User),
		byGHID:     make(map[int64]*model.User),
	}
}

func (m *memUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	if _, taken := m.byUsername[user.Username]; taken {
		return apperror.Conflict("user", user.Username)
	}
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()
	copied := *user
	m.byID[user.ID] = &copied
	m.byUsername[user.Username] = &copied
	return nil
}

func (m *memUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return u, nil
}

func (m *memUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func (m *memUserRepo) UpsertGitHub(ctx context.Context, user *model.User) error {
	if existing, ok := m.byGHID[user.GitHubID]; ok {
		existing.Username = user.Username
		*user = *existing
		return nil
	}
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()
	copied := *user
	m.byID[user.ID] = &copied
	m.byGHID[user.GitHubID] = &copied
	return nil
}

func newAuthHandler(t *testing.T) (*handler.AuthHandler, *memUserRepo) {
	t.Helper()

	repo := newMemUserRepo()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)

	logger := quietLogger()
	svc := service.NewAuthService(repo, tokens, auth.NewPasswordServiceForTest(4), logger)
	return handler.NewAuthHandler(svc, nil, logger), repo
}

func postJSON(h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestHandleRegister(t *testing.T) {
	h, repo := newAuthHandler(t)

	rr := postJSON(h.HandleRegister, "/register", `{"username":"alice","password":"hunter22"}`)

	require.Equal(t, http.StatusCreated, rr.Code)

	var res handler.MessageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "user created successfully", res.Message)
	assert.Len(t, repo.byUsername, 1)
}

func TestHandleRegister_Duplicate(t *testing.T) {
	h, _ := newAuthHandler(t)

	rr := postJSON(h.HandleRegister, "/register", `{"username":"alice","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(h.HandleRegister, "/register", `{"username":"alice","password":"other"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandleRegister_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"username":`},
		{"missing password", `{"username":"alice"}`},
		{"missing username", `{"password":"hunter22"}`},
		{"username too short", `{"username":"ab","password":"hunter22"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newAuthHandler(t)
			rr := postJSON(h.HandleRegister, "/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestHandleLogin(t *testing.T) {
	h, _ := newAuthHandler(t)

	rr := postJSON(h.HandleRegister, "/register", `{"username":"alice","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(h.HandleLogin, "/login", `{"username":"alice","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var res map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.NotEmpty(t, res["access_token"])
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	h, _ := newAuthHandler(t)

	rr := postJSON(h.HandleRegister, "/register", `{"username":"alice","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	wrongPass := postJSON(h.HandleLogin, "/login", `{"username":"alice","password":"nope"}`)
	unknownUser := postJSON(h.HandleLogin, "/login", `{"username":"mallory","password":"hunter22"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	// Identical bodies: the response must not reveal which field was wrong.
	assert.Equal(t, wrongPass.Body.String(), unknownUser.Body.String())
}

func TestHandleProfile(t *testing.T) {
	h, repo := newAuthHandler(t)

	rr := postJSON(h.HandleRegister, "/register", `{"username":"alice","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	user := repo.byUsername["alice"]
	req := authedRequest(http.MethodGet, "/user", "", user.ID)
	rec := httptest.NewRecorder()
	h.HandleProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "alice", res["username"])
	// The hash and GitHub ID never cross the wire.
	assert.NotContains(t, res, "password_hash")
	assert.NotContains(t, res, "github_id")
}
