package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/workflow"
)

// RemoteItem is the server's authoritative view of a content item as the
// client consumes it.
type RemoteItem struct {
	ID        uuid.UUID
	Type      content.Type
	Status    content.Status
	TeamID    *uuid.UUID
	Fields    Fields
	UpdatedAt time.Time
}

// State converts the remote snapshot into store state.
func (r *RemoteItem) State() ItemState {
	return ItemState{
		ID:        r.ID,
		Type:      r.Type,
		Status:    r.Status,
		TeamID:    r.TeamID,
		Fields:    r.Fields.Clone(),
		UpdatedAt: r.UpdatedAt,
	}
}

// Backend is the server boundary the Client mutates through. The HTTP
// implementation lives in this package; tests substitute fakes.
type Backend interface {
	Fetch(ctx context.Context, id uuid.UUID) (*RemoteItem, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields Fields) (*RemoteItem, error)
	Transition(ctx context.Context, id uuid.UUID, action workflow.Action) (content.Status, error)
}
