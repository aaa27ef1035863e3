package validation

import (
	"strings"

	"github.com/uplora/uplora/internal/platform"
)

// ConnectPlatformRequest mirrors the fields needed for platform connection validation.
type ConnectPlatformRequest struct {
	Platform string
	Handle   string
}

// ValidateConnectPlatformRequest validates the fields of a connect platform request.
func ValidateConnectPlatformRequest(req ConnectPlatformRequest) []FieldError {
	var errs []FieldError

	if req.Platform == "" {
		errs = append(errs, FieldError{Field: "platform", Message: "platform is required"})
	} else if !platform.ValidPlatform(req.Platform) {
		errs = append(errs, FieldError{Field: "platform", Message: `platform must be one of "youtube", "instagram", "tiktok", "x", "facebook"`})
	}

	if strings.TrimSpace(req.Handle) == "" {
		errs = append(errs, FieldError{Field: "handle", Message: "handle is required"})
	}

	return errs
}
