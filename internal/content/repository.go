package content

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a content item is not found.
var ErrNotFound = errors.New("content item not found")

// ListFilter narrows a content listing. Nil fields are ignored.
type ListFilter struct {
	TeamID    *uuid.UUID
	CreatorID *uuid.UUID
	Status    *Status
	Type      *Type
	DueBefore *time.Time // matches scheduled_for <= DueBefore
	Page      int
	Limit     int
}

// ListResult is a page of content items plus the unpaged total.
type ListResult struct {
	Items []Item
	Total int
}

// UpdateFields is a partial field update. Nil pointers leave the column untouched.
type UpdateFields struct {
	Title        *string
	Body         *string
	MediaKey     *string
	ThumbnailKey *string
	ScheduledFor *time.Time
}

// Empty reports whether the update changes nothing.
func (u UpdateFields) Empty() bool {
	return u.Title == nil && u.Body == nil && u.MediaKey == nil &&
		u.ThumbnailKey == nil && u.ScheduledFor == nil
}

// Repository provides CRUD operations on the content_items table.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Item, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Item, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
