package validation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/workflow"
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CreateContentRequest mirrors the fields needed for create content validation.
type CreateContentRequest struct {
	Type         string
	TeamID       string
	Title        string
	ScheduledFor string
}

// ValidateCreateContentRequest validates the fields of a create content request.
func ValidateCreateContentRequest(req CreateContentRequest, now time.Time) []FieldError {
	var errs []FieldError

	if req.Type == "" {
		errs = append(errs, FieldError{Field: "type", Message: "type is required"})
	} else if !content.ValidType(req.Type) {
		errs = append(errs, FieldError{Field: "type", Message: `type must be one of "text", "image", "reel", "video"`})
	}

	if req.TeamID != "" {
		if _, err := uuid.Parse(req.TeamID); err != nil {
			errs = append(errs, FieldError{Field: "teamId", Message: "teamId must be a valid UUID"})
		}
	}

	if title := strings.TrimSpace(req.Title); len(title) > 255 {
		errs = append(errs, FieldError{Field: "title", Message: "title must be at most 255 characters"})
	}

	if req.ScheduledFor != "" {
		ts, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			errs = append(errs, FieldError{Field: "scheduledFor", Message: "scheduledFor must be an RFC 3339 timestamp"})
		} else if !ts.After(now) {
			errs = append(errs, FieldError{Field: "scheduledFor", Message: "scheduledFor must be in the future"})
		}
	}

	return errs
}

// UpdateContentRequest mirrors the fields needed for content patch validation.
type UpdateContentRequest struct {
	Title        *string
	ScheduledFor *string
}

// ValidateUpdateContentRequest validates the fields of a content patch request.
func ValidateUpdateContentRequest(req UpdateContentRequest) []FieldError {
	var errs []FieldError

	if req.Title != nil && len(strings.TrimSpace(*req.Title)) > 255 {
		errs = append(errs, FieldError{Field: "title", Message: "title must be at most 255 characters"})
	}

	if req.ScheduledFor != nil {
		if _, err := time.Parse(time.RFC3339, *req.ScheduledFor); err != nil {
			errs = append(errs, FieldError{Field: "scheduledFor", Message: "scheduledFor must be an RFC 3339 timestamp"})
		}
	}

	return errs
}

// ValidateAction checks that s names a known workflow action.
func ValidateAction(s string) []FieldError {
	if !workflow.ValidAction(s) {
		return []FieldError{{Field: "action", Message: "unknown workflow action"}}
	}
	return nil
}
