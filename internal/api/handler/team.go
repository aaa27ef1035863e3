package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/api/middleware"
	"github.com/uplora/uplora/internal/api/response"
	"github.com/uplora/uplora/internal/api/validation"
	"github.com/uplora/uplora/internal/team"
)

type createTeamRequest struct {
	Name string `json:"name"`
}

type setMembershipRequest struct {
	Role string `json:"role"`
}

type teamResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type membershipResponse struct {
	UserID string `json:"userId"`
	TeamID string `json:"teamId"`
	Role   string `json:"role"`
}

func toTeamResponse(t *team.Team) teamResponse {
	return teamResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toMembershipResponse(m *team.Membership) membershipResponse {
	return membershipResponse{
		UserID: m.UserID.String(),
		TeamID: m.TeamID.String(),
		Role:   string(m.Role),
	}
}

// TeamHandler handles team and membership endpoints.
type TeamHandler struct {
	repo       team.Repository
	memberRepo team.MembershipRepository
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(repo team.Repository, memberRepo team.MembershipRepository) *TeamHandler {
	return &TeamHandler{repo: repo, memberRepo: memberRepo}
}

// Create handles POST /teams. The creator becomes the team OWNER.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{Name: req.Name})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	t := &team.Team{Name: req.Name}

	if err := h.repo.Create(r.Context(), t); err != nil {
		if errors.Is(err, team.ErrDuplicateTeamName) {
			response.Err(w, http.StatusConflict, "DUPLICATE_NAME", fmt.Sprintf("A team named %q already exists", req.Name), requestID)
			return
		}
		slog.Error("failed to create team", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create team", requestID)
		return
	}

	m := &team.Membership{UserID: identity.UserID, TeamID: t.ID, Role: team.RoleOwner}
	if err := h.memberRepo.Set(r.Context(), m); err != nil {
		slog.Error("failed to create owner membership", "error", err, "teamId", t.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create team", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toTeamResponse(t), requestID)
}

// List handles GET /teams.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teams, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("failed to list teams", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list teams", requestID)
		return
	}

	items := make([]teamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, toTeamResponse(&teams[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, 100, requestID)
}

// requireTeamRole resolves the team from the path and checks the caller
// holds one of the given roles (or is an admin).
func (h *TeamHandler) requireTeamRole(w http.ResponseWriter, r *http.Request, roles ...team.Role) (teamID uuid.UUID, ok bool) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, fieldErrors := validation.ParseID("id", chi.URLParam(r, "id"))
	if fieldErrors != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return uuid.Nil, false
	}

	if identity.IsAdmin {
		return id, true
	}

	role, member := identity.RoleFor(id)
	if member {
		for _, allowed := range roles {
			if role == allowed {
				return id, true
			}
		}
	}

	response.Err(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", requestID)
	return uuid.Nil, false
}

// Members handles GET /teams/{id}/members.
func (h *TeamHandler) Members(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := h.requireTeamRole(w, r, team.RoleOwner, team.RoleAdmin, team.RoleManager, team.RoleEditor)
	if !ok {
		return
	}

	members, err := h.memberRepo.ListByTeam(r.Context(), id)
	if err != nil {
		slog.Error("failed to list members", "error", err, "teamId", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list members", requestID)
		return
	}

	items := make([]membershipResponse, 0, len(members))
	for i := range members {
		items = append(items, toMembershipResponse(&members[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, 100, requestID)
}

// SetMember handles PUT /teams/{id}/members/{userId}.
func (h *TeamHandler) SetMember(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := h.requireTeamRole(w, r, team.RoleOwner, team.RoleAdmin)
	if !ok {
		return
	}

	userID, fieldErrors := validation.ParseID("userId", chi.URLParam(r, "userId"))
	if fieldErrors != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "userId must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req setMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors = validation.ValidateSetMembershipRequest(validation.SetMembershipRequest{Role: req.Role})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	m := &team.Membership{UserID: userID, TeamID: id, Role: team.Role(req.Role)}
	if err := h.memberRepo.Set(r.Context(), m); err != nil {
		slog.Error("failed to set membership", "error", err, "teamId", id, "userId", userID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to set membership", requestID)
		return
	}

	response.Success(w, http.StatusOK, toMembershipResponse(m), requestID)
}

// RemoveMember handles DELETE /teams/{id}/members/{userId}.
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := h.requireTeamRole(w, r, team.RoleOwner, team.RoleAdmin)
	if !ok {
		return
	}

	userID, fieldErrors := validation.ParseID("userId", chi.URLParam(r, "userId"))
	if fieldErrors != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "userId must be a valid UUID", requestID)
		return
	}

	if err := h.memberRepo.Remove(r.Context(), userID, id); err != nil {
		if errors.Is(err, team.ErrMembershipNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Membership not found", requestID)
			return
		}
		slog.Error("failed to remove membership", "error", err, "teamId", id, "userId", userID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove membership", requestID)
		return
	}

	response.NoContent(w)
}

// Delete handles DELETE /teams/{id}.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := h.requireTeamRole(w, r, team.RoleOwner)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		if errors.Is(err, team.ErrTeamHasContent) {
			response.Err(w, http.StatusConflict, "TEAM_HAS_CONTENT", "Cannot delete team that still owns content", requestID)
			return
		}
		slog.Error("failed to delete team", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete team", requestID)
		return
	}

	response.NoContent(w)
}
