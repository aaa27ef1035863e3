package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uplora/uplora/internal/api/handler"
	"github.com/uplora/uplora/internal/auth"
)

// --- Mock User Repository ---

type mockUserRepo struct {
	createFn func(ctx context.Context, u *auth.User) error
	listFn   func(ctx context.Context) ([]auth.User, error)
	revokeFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *auth.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return nil, auth.ErrUserNotFound
}

func (m *mockUserRepo) FindByPrefix(ctx context.Context, prefix string) ([]auth.User, error) {
	return []auth.User{}, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]auth.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []auth.User{}, nil
}

func (m *mockUserRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) CountAll(ctx context.Context) (int, error) { return 0, nil }

func newUserHandler(repo auth.UserRepository) *handler.UserHandler {
	svc := auth.NewService(repo, &mockMembershipRepo{}, 4)
	return handler.NewUserHandler(svc, repo)
}

// ===== POST /users =====

func TestUserCreate_ReturnsRawKeyOnce(t *testing.T) {
	t.Parallel()

	var stored *auth.User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, u *auth.User) error {
			u.ID = uuid.New()
			u.CreatedAt = time.Now().UTC()
			stored = u
			return nil
		},
	}
	h := newUserHandler(repo)

	body, _ := json.Marshal(map[string]interface{}{
		"name":  "casey",
		"email": "casey@example.com",
	})
	req, w := makeChiRequest(http.MethodPost, "/users", body, adminIdentity(), nil)

	h.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})

	rawKey := data["apiKey"].(string)
	assert.True(t, strings.HasPrefix(rawKey, "uplr_"))

	require.NotNil(t, stored)
	assert.Equal(t, rawKey[:8], stored.ApiKeyPrefix)
	assert.NotEqual(t, rawKey, stored.ApiKeyHash, "raw key must never be stored")
	assert.NotEmpty(t, stored.ApiKeyHash)
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepo{
		createFn: func(ctx context.Context, u *auth.User) error {
			return auth.ErrDuplicateEmail
		},
	}
	h := newUserHandler(repo)

	body, _ := json.Marshal(map[string]interface{}{
		"name":  "casey",
		"email": "casey@example.com",
	})
	req, w := makeChiRequest(http.MethodPost, "/users", body, adminIdentity(), nil)

	h.Create(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assertErrorCode(t, w, "DUPLICATE_EMAIL")
}

func TestUserCreate_ValidationError(t *testing.T) {
	t.Parallel()

	h := newUserHandler(&mockUserRepo{})

	body, _ := json.Marshal(map[string]interface{}{"name": "casey", "email": "not-an-email"})
	req, w := makeChiRequest(http.MethodPost, "/users", body, adminIdentity(), nil)

	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertErrorCode(t, w, "VALIDATION_ERROR")
}

// ===== GET /users =====

func TestUserList_NeverExposesHashes(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepo{
		listFn: func(ctx context.Context) ([]auth.User, error) {
			return []auth.User{{
				ID:           uuid.New(),
				Name:         "casey",
				Email:        "casey@example.com",
				ApiKeyPrefix: "uplr_abc",
				ApiKeyHash:   "$2a$12$secret",
				CreatedAt:    time.Now().UTC(),
			}}, nil
		},
	}
	h := newUserHandler(repo)

	req, w := makeChiRequest(http.MethodGet, "/users", nil, adminIdentity(), nil)
	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "$2a$12$secret")

	env := parseEnvelope(t, w)
	data := env["data"].([]interface{})
	require.Len(t, data, 1)
	user := data[0].(map[string]interface{})
	assert.Equal(t, "uplr_abc", user["apiKeyPrefix"])
}

// ===== DELETE /users/{id} =====

func TestUserRevoke_Success(t *testing.T) {
	t.Parallel()

	h := newUserHandler(&mockUserRepo{})

	id := uuid.New().String()
	req, w := makeChiRequest(http.MethodDelete, "/users/"+id, nil, adminIdentity(), map[string]string{"id": id})
	h.Revoke(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUserRevoke_AlreadyRevoked(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepo{
		revokeFn: func(ctx context.Context, id uuid.UUID) error {
			return auth.ErrUserRevoked
		},
	}
	h := newUserHandler(repo)

	id := uuid.New().String()
	req, w := makeChiRequest(http.MethodDelete, "/users/"+id, nil, adminIdentity(), map[string]string{"id": id})
	h.Revoke(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assertErrorCode(t, w, "ALREADY_REVOKED")
}

func TestUserRevoke_NotFound(t *testing.T) {
	t.Parallel()

	repo := &mockUserRepo{
		revokeFn: func(ctx context.Context, id uuid.UUID) error {
			return auth.ErrUserNotFound
		},
	}
	h := newUserHandler(repo)

	id := uuid.New().String()
	req, w := makeChiRequest(http.MethodDelete, "/users/"+id, nil, adminIdentity(), map[string]string{"id": id})
	h.Revoke(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
