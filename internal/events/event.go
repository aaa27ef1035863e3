package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/content"
)

// Sub-types appended to the "post." / "video." prefix.
const (
	SubStatus  = "status"
	SubUpdated = "updated"
	SubDeleted = "deleted"
)

// Payload is the event body delivered to subscribers. Fields carries only
// the columns changed by an update event, so clients can merge field-wise.
type Payload struct {
	ID        uuid.UUID      `json:"id"`
	TeamID    *uuid.UUID     `json:"teamId,omitempty"`
	Status    string         `json:"status,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Event is a single notification pushed to live subscribers.
type Event struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload"`
}

// TypeFor builds the event type string for a content type and sub-type.
// Video-like content publishes under "video.", everything else under "post.".
func TypeFor(ct content.Type, sub string) string {
	if ct == content.TypeVideo || ct == content.TypeReel {
		return "video." + sub
	}
	return "post." + sub
}

// StatusEvent builds a pure status-change event for the given item.
func StatusEvent(it *content.Item) Event {
	return Event{
		Type: TypeFor(it.Type, SubStatus),
		Payload: Payload{
			ID:        it.ID,
			TeamID:    it.TeamID,
			Status:    string(it.Status),
			UpdatedAt: it.UpdatedAt,
		},
	}
}

// UpdateEvent builds a field-update event carrying the changed fields.
func UpdateEvent(it *content.Item, fields map[string]any) Event {
	return Event{
		Type: TypeFor(it.Type, SubUpdated),
		Payload: Payload{
			ID:        it.ID,
			TeamID:    it.TeamID,
			Fields:    fields,
			UpdatedAt: it.UpdatedAt,
		},
	}
}

// DeleteEvent builds a deletion event for the given item.
func DeleteEvent(it *content.Item) Event {
	return Event{
		Type: TypeFor(it.Type, SubDeleted),
		Payload: Payload{
			ID:        it.ID,
			TeamID:    it.TeamID,
			UpdatedAt: it.UpdatedAt,
		},
	}
}
