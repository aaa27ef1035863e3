package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/api/middleware"
	"github.com/uplora/uplora/internal/api/response"
	"github.com/uplora/uplora/internal/api/validation"
	"github.com/uplora/uplora/internal/auth"
	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/events"
	"github.com/uplora/uplora/internal/metrics"
	"github.com/uplora/uplora/internal/platform"
	"github.com/uplora/uplora/internal/team"
	"github.com/uplora/uplora/internal/workflow"
)

type createContentRequest struct {
	Type         string  `json:"type"`
	TeamID       string  `json:"teamId"`
	Title        string  `json:"title"`
	Body         string  `json:"body"`
	MediaKey     *string `json:"mediaKey"`
	ThumbnailKey *string `json:"thumbnailKey"`
	ScheduledFor string  `json:"scheduledFor"`
}

type updateContentRequest struct {
	Title        *string `json:"title,omitempty"`
	Body         *string `json:"body,omitempty"`
	MediaKey     *string `json:"mediaKey,omitempty"`
	ThumbnailKey *string `json:"thumbnailKey,omitempty"`
	ScheduledFor *string `json:"scheduledFor,omitempty"`
}

type contentResponse struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	TeamID       *string `json:"teamId,omitempty"`
	CreatorID    string  `json:"creatorId"`
	Title        string  `json:"title"`
	Body         string  `json:"body"`
	MediaKey     *string `json:"mediaKey,omitempty"`
	ThumbnailKey *string `json:"thumbnailKey,omitempty"`
	ScheduledFor *string `json:"scheduledFor,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func toContentResponse(it *content.Item) contentResponse {
	resp := contentResponse{
		ID:           it.ID.String(),
		Type:         string(it.Type),
		Status:       string(it.Status),
		CreatorID:    it.CreatorID.String(),
		Title:        it.Title,
		Body:         it.Body,
		MediaKey:     it.MediaKey,
		ThumbnailKey: it.ThumbnailKey,
		CreatedAt:    it.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    it.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if it.TeamID != nil {
		s := it.TeamID.String()
		resp.TeamID = &s
	}
	if it.ScheduledFor != nil {
		s := it.ScheduledFor.UTC().Format(time.RFC3339)
		resp.ScheduledFor = &s
	}
	return resp
}

// pathActions maps transition endpoint segments to workflow actions.
var pathActions = map[string]workflow.Action{
	"mark-ready":       workflow.ActionMarkReady,
	"request-approval": workflow.ActionRequestApproval,
	"approve":          workflow.ActionApprove,
	"publish":          workflow.ActionPublish,
	"revert":           workflow.ActionRevert,
}

// ContentHandler handles content CRUD and workflow transition endpoints.
type ContentHandler struct {
	repo         content.Repository
	platformRepo platform.Repository
	hub          *events.Hub
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(repo content.Repository, platformRepo platform.Repository, hub *events.Hub) *ContentHandler {
	return &ContentHandler{
		repo:         repo,
		platformRepo: platformRepo,
		hub:          hub,
	}
}

// actorRole resolves the identity's effective role for an item. For team
// content it is the membership role (admins act as ADMIN everywhere). For
// personal content the creator acts as OWNER. ok is false when the identity
// has no access to the item at all.
func actorRole(identity *auth.Identity, it *content.Item) (role team.Role, ok bool) {
	if it.TeamID != nil {
		if r, member := identity.RoleFor(*it.TeamID); member {
			return r, true
		}
		if identity.IsAdmin {
			return team.RoleAdmin, true
		}
		return "", false
	}

	if it.CreatorID == identity.UserID || identity.IsAdmin {
		return team.RoleOwner, true
	}
	return "", false
}

// Create handles POST /content.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateContentRequest(validation.CreateContentRequest{
		Type:         req.Type,
		TeamID:       req.TeamID,
		Title:        req.Title,
		ScheduledFor: req.ScheduledFor,
	}, time.Now().UTC())
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	it := &content.Item{
		Type:         content.Type(req.Type),
		CreatorID:    identity.UserID,
		Title:        req.Title,
		Body:         req.Body,
		MediaKey:     req.MediaKey,
		ThumbnailKey: req.ThumbnailKey,
	}

	if req.TeamID != "" {
		teamID, _ := uuid.Parse(req.TeamID) // already validated
		if _, member := identity.RoleFor(teamID); !member && !identity.IsAdmin {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not a member of this team", requestID)
			return
		}
		it.TeamID = &teamID
	}

	if req.ScheduledFor != "" {
		ts, _ := time.Parse(time.RFC3339, req.ScheduledFor) // already validated
		it.ScheduledFor = &ts
	}

	if err := h.repo.Create(r.Context(), it); err != nil {
		slog.Error("failed to create content item", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create content", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toContentResponse(it), requestID)
}

// List handles GET /content.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	filter := content.ListFilter{Page: 1, Limit: 100}

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		if !content.ValidStatus(v) {
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status filter", requestID)
			return
		}
		s := content.Status(v)
		filter.Status = &s
	}
	if v := r.URL.Query().Get("type"); v != "" {
		if !content.ValidType(v) {
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown type filter", requestID)
			return
		}
		t := content.Type(v)
		filter.Type = &t
	}

	if v := r.URL.Query().Get("teamId"); v != "" {
		teamID, err := uuid.Parse(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "teamId must be a valid UUID", requestID)
			return
		}
		if _, member := identity.RoleFor(teamID); !member && !identity.IsAdmin {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not a member of this team", requestID)
			return
		}
		filter.TeamID = &teamID
	} else {
		// Without a team scope, non-admins see their own content only.
		if !identity.IsAdmin {
			creatorID := identity.UserID
			filter.CreatorID = &creatorID
		}
	}

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list content items", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list content", requestID)
		return
	}

	items := make([]contentResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toContentResponse(&result.Items[i]))
	}

	response.SuccessList(w, http.StatusOK, items, result.Total, filter.Page, filter.Limit, requestID)
}

// load fetches the item and resolves the caller's role. Writes the error
// response and returns ok=false when the item is missing or access is denied.
func (h *ContentHandler) load(w http.ResponseWriter, r *http.Request) (it *content.Item, role team.Role, ok bool) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, fieldErrors := validation.ParseID("id", chi.URLParam(r, "id"))
	if fieldErrors != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return nil, "", false
	}

	it, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Content not found", requestID)
			return nil, "", false
		}
		slog.Error("failed to get content item", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get content", requestID)
		return nil, "", false
	}

	role, allowed := actorRole(identity, it)
	if !allowed {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "No access to this content", requestID)
		return nil, "", false
	}

	return it, role, true
}

// GetByID handles GET /content/{id}.
func (h *ContentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	it, _, ok := h.load(w, r)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, toContentResponse(it), requestID)
}

// Update handles PATCH /content/{id}.
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	it, role, ok := h.load(w, r)
	if !ok {
		return
	}

	if !workflow.CanEdit(it.Status, role) {
		response.Err(w, http.StatusLocked, "EDIT_LOCKED", "Content is awaiting approval and cannot be edited", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateContentRequest(validation.UpdateContentRequest{
		Title:        req.Title,
		ScheduledFor: req.ScheduledFor,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	fields := content.UpdateFields{
		Title:        req.Title,
		Body:         req.Body,
		MediaKey:     req.MediaKey,
		ThumbnailKey: req.ThumbnailKey,
	}
	changed := map[string]any{}
	if req.Title != nil {
		changed["title"] = *req.Title
	}
	if req.Body != nil {
		changed["body"] = *req.Body
	}
	if req.MediaKey != nil {
		changed["mediaKey"] = *req.MediaKey
	}
	if req.ThumbnailKey != nil {
		changed["thumbnailKey"] = *req.ThumbnailKey
	}
	if req.ScheduledFor != nil {
		ts, _ := time.Parse(time.RFC3339, *req.ScheduledFor) // already validated
		fields.ScheduledFor = &ts
		changed["scheduledFor"] = ts.UTC().Format(time.RFC3339)
	}

	updated, err := h.repo.Update(r.Context(), it.ID, fields)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Content not found", requestID)
			return
		}
		slog.Error("failed to update content item", "error", err, "id", it.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update content", requestID)
		return
	}

	if len(changed) > 0 {
		h.publish(events.UpdateEvent(updated, changed))
	}

	response.Success(w, http.StatusOK, toContentResponse(updated), requestID)
}

// Transition handles POST /content/{id}/{action} for the workflow endpoints.
func (h *ContentHandler) Transition(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	action, known := pathActions[chi.URLParam(r, "action")]
	if !known {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Unknown workflow action", requestID)
		return
	}

	it, role, ok := h.load(w, r)
	if !ok {
		return
	}

	decision := workflow.Decide(it.Status, role, it.IsTeamContent(), action)
	if !decision.Allowed {
		metrics.ObserveTransition(string(action), "denied")
		response.Err(w, http.StatusConflict, "TRANSITION_DENIED", decision.Reason, requestID)
		return
	}

	next := decision.Next
	if action == workflow.ActionApprove && it.TeamID != nil {
		// Approval publishes immediately when the team has an active
		// platform connection to cross-post through.
		hasActive, err := h.platformRepo.HasActive(r.Context(), *it.TeamID)
		if err != nil {
			slog.Error("failed to check platform connections", "error", err, "teamId", *it.TeamID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to apply transition", requestID)
			return
		}
		if hasActive {
			next = content.StatusPublished
		}
	}

	updated, err := h.repo.UpdateStatus(r.Context(), it.ID, next)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Content not found", requestID)
			return
		}
		slog.Error("failed to apply transition", "error", err, "id", it.ID, "action", action)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to apply transition", requestID)
		return
	}

	metrics.ObserveTransition(string(action), "allowed")
	h.publish(events.StatusEvent(updated))

	response.Success(w, http.StatusOK, statusResponse{Status: string(updated.Status)}, requestID)
}

// Delete handles DELETE /content/{id}. Soft delete; restricted to team
// owners/admins, the creator of personal content, and platform admins.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	it, role, ok := h.load(w, r)
	if !ok {
		return
	}

	if role != team.RoleOwner && role != team.RoleAdmin {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions to delete content", requestID)
		return
	}

	if err := h.repo.SoftDelete(r.Context(), it.ID); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Content not found", requestID)
			return
		}
		slog.Error("failed to delete content item", "error", err, "id", it.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete content", requestID)
		return
	}

	it.UpdatedAt = time.Now().UTC()
	h.publish(events.DeleteEvent(it))

	response.NoContent(w)
}

func (h *ContentHandler) publish(e events.Event) {
	metrics.EventsPublishedTotal.WithLabelValues(e.Type).Inc()
	h.hub.Publish(e)
}
