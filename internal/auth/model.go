package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/team"
)

// User represents a row in the users table.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	IsAdmin      bool
	ApiKeyPrefix string
	ApiKeyHash   string
	CreatedAt    time.Time
	RevokedAt    *time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID  uuid.UUID
	Name    string
	IsAdmin bool
	Roles   map[uuid.UUID]team.Role // team ID -> role
}

// RoleFor returns the identity's role in the given team, if any.
func (i *Identity) RoleFor(teamID uuid.UUID) (team.Role, bool) {
	r, ok := i.Roles[teamID]
	return r, ok
}
