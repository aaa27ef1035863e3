package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uplora/uplora/internal/api/middleware"
	"github.com/uplora/uplora/internal/api/response"
	"github.com/uplora/uplora/internal/api/validation"
	"github.com/uplora/uplora/internal/platform"
	"github.com/uplora/uplora/internal/team"
)

type connectPlatformRequest struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
}

type platformResponse struct {
	ID          string `json:"id"`
	TeamID      string `json:"teamId"`
	Platform    string `json:"platform"`
	Handle      string `json:"handle"`
	Active      bool   `json:"active"`
	ConnectedAt string `json:"connectedAt"`
}

func toPlatformResponse(c *platform.Connection) platformResponse {
	return platformResponse{
		ID:          c.ID.String(),
		TeamID:      c.TeamID.String(),
		Platform:    c.Platform,
		Handle:      c.Handle,
		Active:      c.Active,
		ConnectedAt: c.ConnectedAt.UTC().Format(time.RFC3339),
	}
}

// PlatformHandler handles team platform connection endpoints.
type PlatformHandler struct {
	repo  platform.Repository
	teams *TeamHandler
}

// NewPlatformHandler creates a new PlatformHandler.
func NewPlatformHandler(repo platform.Repository, teams *TeamHandler) *PlatformHandler {
	return &PlatformHandler{repo: repo, teams: teams}
}

// Connect handles POST /teams/{id}/platforms.
func (h *PlatformHandler) Connect(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, ok := h.teams.requireTeamRole(w, r, team.RoleOwner, team.RoleAdmin)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req connectPlatformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateConnectPlatformRequest(validation.ConnectPlatformRequest{
		Platform: req.Platform,
		Handle:   req.Handle,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	c := &platform.Connection{
		TeamID:   teamID,
		Platform: req.Platform,
		Handle:   strings.TrimSpace(req.Handle),
		Active:   true,
	}

	if err := h.repo.Create(r.Context(), c); err != nil {
		if errors.Is(err, platform.ErrDuplicateConnection) {
			response.Err(w, http.StatusConflict, "DUPLICATE_CONNECTION", "This platform is already connected", requestID)
			return
		}
		slog.Error("failed to connect platform", "error", err, "teamId", teamID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to connect platform", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toPlatformResponse(c), requestID)
}

// List handles GET /teams/{id}/platforms.
func (h *PlatformHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, ok := h.teams.requireTeamRole(w, r, team.RoleOwner, team.RoleAdmin, team.RoleManager, team.RoleEditor)
	if !ok {
		return
	}

	conns, err := h.repo.ListByTeam(r.Context(), teamID)
	if err != nil {
		slog.Error("failed to list platform connections", "error", err, "teamId", teamID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list platforms", requestID)
		return
	}

	items := make([]platformResponse, 0, len(conns))
	for i := range conns {
		items = append(items, toPlatformResponse(&conns[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, 100, requestID)
}

// Disconnect handles DELETE /teams/{id}/platforms/{connId}.
func (h *PlatformHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if _, ok := h.teams.requireTeamRole(w, r, team.RoleOwner, team.RoleAdmin); !ok {
		return
	}

	connID, fieldErrors := validation.ParseID("connId", chi.URLParam(r, "connId"))
	if fieldErrors != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "connId must be a valid UUID", requestID)
		return
	}

	if err := h.repo.Delete(r.Context(), connID); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Platform connection not found", requestID)
			return
		}
		slog.Error("failed to disconnect platform", "error", err, "connId", connID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to disconnect platform", requestID)
		return
	}

	response.NoContent(w)
}
