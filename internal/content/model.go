package content

import (
	"time"

	"github.com/google/uuid"
)

// Type is the kind of publishable material a content item holds.
type Type string

// Content types.
const (
	TypeText  Type = "text"
	TypeImage Type = "image"
	TypeReel  Type = "reel"
	TypeVideo Type = "video"
)

// ValidType reports whether s names a known content type.
func ValidType(s string) bool {
	switch Type(s) {
	case TypeText, TypeImage, TypeReel, TypeVideo:
		return true
	}
	return false
}

// Status is a content item's position in the publishing workflow.
type Status string

// Workflow statuses. PUBLISHED is terminal.
const (
	StatusDraft      Status = "DRAFT"
	StatusProcessing Status = "PROCESSING"
	StatusReady      Status = "READY"
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusPublished  Status = "PUBLISHED"
	StatusScheduled  Status = "SCHEDULED"
)

// ValidStatus reports whether s names a known workflow status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusDraft, StatusProcessing, StatusReady, StatusPending,
		StatusApproved, StatusPublished, StatusScheduled:
		return true
	}
	return false
}

// Item represents a row in the content_items table. TeamID is nil for
// personal content. UpdatedAt is the logical clock clients reconcile against.
type Item struct {
	ID           uuid.UUID
	Type         Type
	Status       Status
	TeamID       *uuid.UUID
	CreatorID    uuid.UUID
	Title        string
	Body         string
	MediaKey     *string
	ThumbnailKey *string
	ScheduledFor *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// IsTeamContent reports whether the item belongs to a team.
func (i *Item) IsTeamContent() bool {
	return i.TeamID != nil
}
