package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/uplora/uplora/internal/api/response"
	"github.com/uplora/uplora/internal/auth"
)

const identityKey contextKey = "identity"

// Auth resolves the X-API-Key header to an Identity and stores it in the
// request context. Missing or unrecognized keys get 401; per-team role checks
// happen in the handlers, which know which team a request targets.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			rawKey := r.Header.Get("X-API-Key")
			if rawKey == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is required", requestID)
				return
			}

			identity, err := authService.Authenticate(r.Context(), rawKey)
			switch {
			case errors.Is(err, auth.ErrInvalidKey):
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or revoked API key", requestID)
				return
			case err != nil:
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// GetIdentity retrieves the authenticated Identity from the request context,
// or nil when the request did not pass through Auth.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity returns a context carrying the given identity. Auth uses it;
// tests use it to skip the key exchange.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
