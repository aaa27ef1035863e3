package team

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrDuplicateTeamName is returned when a team with the same name already exists.
var ErrDuplicateTeamName = errors.New("team name already exists")

// ErrTeamHasContent is returned when attempting to delete a team that still owns content.
var ErrTeamHasContent = errors.New("team has content")

// ErrMembershipNotFound is returned when a user has no membership in a team.
var ErrMembershipNotFound = errors.New("membership not found")

// Repository provides CRUD operations on the teams table.
type Repository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	GetByName(ctx context.Context, name string) (*Team, error)
	List(ctx context.Context) ([]Team, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MembershipRepository provides operations on the team_memberships table.
type MembershipRepository interface {
	Set(ctx context.Context, m *Membership) error
	Get(ctx context.Context, userID, teamID uuid.UUID) (*Membership, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Membership, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
	Remove(ctx context.Context, userID, teamID uuid.UUID) error
}
