package team

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's role within a team.
type Role string

// Team roles, ordered from most to least privileged.
const (
	RoleOwner   Role = "OWNER"
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleEditor  Role = "EDITOR"
)

// ValidRole reports whether s names a known team role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleManager, RoleEditor:
		return true
	}
	return false
}

// Team represents a row in the teams table.
type Team struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership represents a row in the team_memberships table.
type Membership struct {
	UserID    uuid.UUID
	TeamID    uuid.UUID
	Role      Role
	CreatedAt time.Time
}
