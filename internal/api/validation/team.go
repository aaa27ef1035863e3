package validation

import (
	"strings"

	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/team"
)

// CreateTeamRequest mirrors the fields needed for create team validation.
type CreateTeamRequest struct {
	Name string
}

// ValidateCreateTeamRequest validates the fields of a create team request.
func ValidateCreateTeamRequest(req CreateTeamRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	return errs
}

// SetMembershipRequest mirrors the fields needed for membership validation.
type SetMembershipRequest struct {
	Role string
}

// ValidateSetMembershipRequest validates the fields of a set membership request.
func ValidateSetMembershipRequest(req SetMembershipRequest) []FieldError {
	var errs []FieldError

	if req.Role == "" {
		errs = append(errs, FieldError{Field: "role", Message: "role is required"})
	} else if !team.ValidRole(req.Role) {
		errs = append(errs, FieldError{Field: "role", Message: `role must be one of "OWNER", "ADMIN", "MANAGER", "EDITOR"`})
	}

	return errs
}

// CreateUserRequest mirrors the fields needed for create user validation.
type CreateUserRequest struct {
	Name  string
	Email string
}

// ValidateCreateUserRequest validates the fields of a create user request.
func ValidateCreateUserRequest(req CreateUserRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if !strings.Contains(email, "@") {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	return errs
}

// ParseID validates a path parameter as a UUID.
func ParseID(field, value string) (uuid.UUID, []FieldError) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, []FieldError{{Field: field, Message: field + " must be a valid UUID"}}
	}
	return id, nil
}
