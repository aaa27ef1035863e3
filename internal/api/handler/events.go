package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/api/middleware"
	"github.com/uplora/uplora/internal/api/response"
	"github.com/uplora/uplora/internal/events"
	"github.com/uplora/uplora/internal/metrics"
)

// EventsHandler serves the live update stream as server-sent events.
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// ServeHTTP handles GET /events. Each matching event is written as one
// "data:" line of JSON. The stream stays open until the client disconnects.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Streaming unsupported", requestID)
		return
	}

	var filter events.Filter
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
	}
	if v := r.URL.Query().Get("contentId"); v != "" {
		contentID, err := uuid.Parse(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "INVALID_ID", "contentId must be a valid UUID", requestID)
			return
		}
		filter.ContentID = &contentID
	}

	sub := h.hub.Subscribe(filter)
	defer sub.Cancel()

	metrics.EventSubscribers.Inc()
	defer metrics.EventSubscribers.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	slog.Debug("event stream opened", "requestId", requestID, "user", identity.UserID)

	for {
		select {
		case <-r.Context().Done():
			return
		case e, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to marshal event", "error", err, "type", e.Type)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
