package sync

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/events"
)

// Stream delivers live update events. Next blocks until an event arrives or
// the stream fails. Implemented by the SSE transport; tests use fakes.
type Stream interface {
	Next() (events.Event, error)
	Close() error
}

// SubscriberHandlers receive notable stream occurrences. All callbacks are
// optional and invoked from the Run goroutine.
type SubscriberHandlers struct {
	// OnDeleted fires when a deletion event arrives for an item held in the
	// store; the view should navigate away.
	OnDeleted func(id uuid.UUID)
	// OnStatus fires after a status event has been applied.
	OnStatus func(id uuid.UUID, status content.Status)
}

// Subscriber merges live server-push events into the store without
// clobbering unsaved local edits. Status changes apply unconditionally;
// field updates merge field-wise around unresolved pending edits.
type Subscriber struct {
	store    *Store
	handlers SubscriberHandlers
}

// NewSubscriber creates a Subscriber applying events to the store.
func NewSubscriber(store *Store, handlers SubscriberHandlers) *Subscriber {
	return &Subscriber{store: store, handlers: handlers}
}

// Run consumes the stream until it fails or ctx is cancelled. A stream
// error is returned to the caller and is non-fatal to the store: pending
// local edits remain intact, and the UI falls back to demand fetches.
// Reconnection policy belongs to the caller.
func (s *Subscriber) Run(ctx context.Context, stream Stream) error {
	defer stream.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		e, err := stream.Next()
		if err != nil {
			return err
		}

		s.Apply(e)
	}
}

// Apply merges a single event into the store.
func (s *Subscriber) Apply(e events.Event) {
	id := e.Payload.ID

	switch eventSub(e.Type) {
	case events.SubStatus:
		if s.store.SetStatus(id, content.Status(e.Payload.Status)) && s.handlers.OnStatus != nil {
			s.handlers.OnStatus(id, content.Status(e.Payload.Status))
		}

	case events.SubDeleted:
		if _, held := s.store.Get(id); !held {
			return
		}
		s.store.Remove(id)
		if s.handlers.OnDeleted != nil {
			s.handlers.OnDeleted(id)
		}

	case events.SubUpdated:
		s.store.MergeRemote(id, Fields(e.Payload.Fields), e.Payload.UpdatedAt)
	}
}

func eventSub(eventType string) string {
	if i := strings.LastIndex(eventType, "."); i >= 0 {
		return eventType[i+1:]
	}
	return eventType
}
