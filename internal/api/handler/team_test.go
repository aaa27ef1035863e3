package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uplora/uplora/internal/api/handler"
	"github.com/uplora/uplora/internal/team"
)

// --- Mock Team Repository ---

type mockTeamRepo struct {
	createFn func(ctx context.Context, t *team.Team) error
	listFn   func(ctx context.Context) ([]team.Team, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTeamRepo) Create(ctx context.Context, t *team.Team) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockTeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	return nil, team.ErrTeamNotFound
}

func (m *mockTeamRepo) GetByName(ctx context.Context, name string) (*team.Team, error) {
	return nil, team.ErrTeamNotFound
}

func (m *mockTeamRepo) List(ctx context.Context) ([]team.Team, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []team.Team{}, nil
}

func (m *mockTeamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock Membership Repository ---

type mockMembershipRepo struct {
	setFn        func(ctx context.Context, m *team.Membership) error
	listByTeamFn func(ctx context.Context, teamID uuid.UUID) ([]team.Membership, error)
	removeFn     func(ctx context.Context, userID, teamID uuid.UUID) error
}

func (m *mockMembershipRepo) Set(ctx context.Context, ms *team.Membership) error {
	if m.setFn != nil {
		return m.setFn(ctx, ms)
	}
	ms.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockMembershipRepo) Get(ctx context.Context, userID, teamID uuid.UUID) (*team.Membership, error) {
	return nil, team.ErrMembershipNotFound
}

func (m *mockMembershipRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]team.Membership, error) {
	if m.listByTeamFn != nil {
		return m.listByTeamFn(ctx, teamID)
	}
	return []team.Membership{}, nil
}

func (m *mockMembershipRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]team.Membership, error) {
	return []team.Membership{}, nil
}

func (m *mockMembershipRepo) Remove(ctx context.Context, userID, teamID uuid.UUID) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, teamID)
	}
	return nil
}

// ===== POST /teams =====

func TestTeamCreate_CreatorBecomesOwner(t *testing.T) {
	t.Parallel()

	identity := adminIdentity()
	identity.IsAdmin = false

	var ownerMembership *team.Membership
	memberRepo := &mockMembershipRepo{
		setFn: func(ctx context.Context, m *team.Membership) error {
			ownerMembership = m
			return nil
		},
	}
	h := handler.NewTeamHandler(&mockTeamRepo{}, memberRepo)

	body, _ := json.Marshal(map[string]interface{}{"name": "growth"})
	req, w := makeChiRequest(http.MethodPost, "/teams", body, identity, nil)

	h.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "growth", data["name"])

	// Timestamps are RFC3339, same as every other endpoint.
	_, err := time.Parse(time.RFC3339, data["createdAt"].(string))
	assert.NoError(t, err)

	require.NotNil(t, ownerMembership)
	assert.Equal(t, identity.UserID, ownerMembership.UserID)
	assert.Equal(t, team.RoleOwner, ownerMembership.Role)
}

func TestTeamCreate_DuplicateName(t *testing.T) {
	t.Parallel()

	repo := &mockTeamRepo{
		createFn: func(ctx context.Context, tm *team.Team) error {
			return team.ErrDuplicateTeamName
		},
	}
	h := handler.NewTeamHandler(repo, &mockMembershipRepo{})

	body, _ := json.Marshal(map[string]interface{}{"name": "growth"})
	req, w := makeChiRequest(http.MethodPost, "/teams", body, adminIdentity(), nil)

	h.Create(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assertErrorCode(t, w, "DUPLICATE_NAME")
}

func TestTeamCreate_MissingName(t *testing.T) {
	t.Parallel()

	h := handler.NewTeamHandler(&mockTeamRepo{}, &mockMembershipRepo{})

	body, _ := json.Marshal(map[string]interface{}{})
	req, w := makeChiRequest(http.MethodPost, "/teams", body, adminIdentity(), nil)

	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertErrorCode(t, w, "VALIDATION_ERROR")
}

// ===== GET /teams/{id}/members =====

func TestTeamMembers_MemberCanList(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	identity := memberIdentity(teamID, team.RoleEditor)

	memberRepo := &mockMembershipRepo{
		listByTeamFn: func(ctx context.Context, gotTeam uuid.UUID) ([]team.Membership, error) {
			assert.Equal(t, teamID, gotTeam)
			return []team.Membership{
				{UserID: identity.UserID, TeamID: teamID, Role: team.RoleEditor},
			}, nil
		},
	}
	h := handler.NewTeamHandler(&mockTeamRepo{}, memberRepo)

	req, w := makeChiRequest(http.MethodGet, "/teams/"+teamID.String()+"/members", nil, identity, map[string]string{"id": teamID.String()})
	h.Members(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	data := env["data"].([]interface{})
	require.Len(t, data, 1)
	member := data[0].(map[string]interface{})
	assert.Equal(t, "EDITOR", member["role"])
}

func TestTeamMembers_OutsiderForbidden(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	identity := memberIdentity(uuid.New(), team.RoleOwner)

	h := handler.NewTeamHandler(&mockTeamRepo{}, &mockMembershipRepo{})

	req, w := makeChiRequest(http.MethodGet, "/teams/"+teamID.String()+"/members", nil, identity, map[string]string{"id": teamID.String()})
	h.Members(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assertErrorCode(t, w, "FORBIDDEN")
}

// ===== PUT /teams/{id}/members/{userId} =====

func TestTeamSetMember_OwnerAssignsRole(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	userID := uuid.New()
	identity := memberIdentity(teamID, team.RoleOwner)

	h := handler.NewTeamHandler(&mockTeamRepo{}, &mockMembershipRepo{})

	body, _ := json.Marshal(map[string]interface{}{"role": "MANAGER"})
	req, w := makeChiRequest(http.MethodPut, "/teams/"+teamID.String()+"/members/"+userID.String(), body, identity, map[string]string{
		"id":     teamID.String(),
		"userId": userID.String(),
	})
	h.SetMember(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "MANAGER", data["role"])
	assert.Equal(t, userID.String(), data["userId"])
}

func TestTeamSetMember_EditorForbidden(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	identity := memberIdentity(teamID, team.RoleEditor)

	h := handler.NewTeamHandler(&mockTeamRepo{}, &mockMembershipRepo{})

	body, _ := json.Marshal(map[string]interface{}{"role": "MANAGER"})
	req, w := makeChiRequest(http.MethodPut, "/teams/"+teamID.String()+"/members/"+uuid.New().String(), body, identity, map[string]string{
		"id":     teamID.String(),
		"userId": uuid.New().String(),
	})
	h.SetMember(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTeamSetMember_InvalidRole(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	identity := memberIdentity(teamID, team.RoleOwner)

	h := handler.NewTeamHandler(&mockTeamRepo{}, &mockMembershipRepo{})

	body, _ := json.Marshal(map[string]interface{}{"role": "SUPERVISOR"})
	req, w := makeChiRequest(http.MethodPut, "/teams/"+teamID.String()+"/members/"+uuid.New().String(), body, identity, map[string]string{
		"id":     teamID.String(),
		"userId": uuid.New().String(),
	})
	h.SetMember(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertErrorCode(t, w, "VALIDATION_ERROR")
}

// ===== DELETE /teams/{id}/members/{userId} =====

func TestTeamRemoveMember_NotFound(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	identity := memberIdentity(teamID, team.RoleOwner)

	memberRepo := &mockMembershipRepo{
		removeFn: func(ctx context.Context, userID, gotTeam uuid.UUID) error {
			return team.ErrMembershipNotFound
		},
	}
	h := handler.NewTeamHandler(&mockTeamRepo{}, memberRepo)

	req, w := makeChiRequest(http.MethodDelete, "/teams/"+teamID.String()+"/members/"+uuid.New().String(), nil, identity, map[string]string{
		"id":     teamID.String(),
		"userId": uuid.New().String(),
	})
	h.RemoveMember(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assertErrorCode(t, w, "NOT_FOUND")
}

// ===== DELETE /teams/{id} =====

func TestTeamDelete_OwnerSucceeds(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	identity := memberIdentity(teamID, team.RoleOwner)

	h := handler.NewTeamHandler(&mockTeamRepo{}, &mockMembershipRepo{})

	req, w := makeChiRequest(http.MethodDelete, "/teams/"+teamID.String(), nil, identity, map[string]string{"id": teamID.String()})
	h.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTeamDelete_AdminBypassesMembership(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	h := handler.NewTeamHandler(&mockTeamRepo{}, &mockMembershipRepo{})

	req, w := makeChiRequest(http.MethodDelete, "/teams/"+teamID.String(), nil, adminIdentity(), map[string]string{"id": teamID.String()})
	h.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTeamDelete_StillOwnsContent(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	identity := memberIdentity(teamID, team.RoleOwner)

	repo := &mockTeamRepo{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			return team.ErrTeamHasContent
		},
	}
	h := handler.NewTeamHandler(repo, &mockMembershipRepo{})

	req, w := makeChiRequest(http.MethodDelete, "/teams/"+teamID.String(), nil, identity, map[string]string{"id": teamID.String()})
	h.Delete(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assertErrorCode(t, w, "TEAM_HAS_CONTENT")
}

func TestTeamDelete_ManagerForbidden(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	identity := memberIdentity(teamID, team.RoleManager)

	h := handler.NewTeamHandler(&mockTeamRepo{}, &mockMembershipRepo{})

	req, w := makeChiRequest(http.MethodDelete, "/teams/"+teamID.String(), nil, identity, map[string]string{"id": teamID.String()})
	h.Delete(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
