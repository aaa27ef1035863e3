package platform

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a platform connection is not found.
var ErrNotFound = errors.New("platform connection not found")

// ErrDuplicateConnection is returned when the team already has a connection
// for the same platform.
var ErrDuplicateConnection = errors.New("platform already connected")

// Repository provides operations on the platform_connections table.
type Repository interface {
	Create(ctx context.Context, c *Connection) error
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Connection, error)
	HasActive(ctx context.Context, teamID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
