// Package sync implements the client side of the content workflow: an
// injectable state store with pending-edit tracking, an optimistic mutation
// client, an autosave debouncer, and a live update subscriber. It is
// framework-free; a UI layer observes the store and renders it.
package sync

import (
	"maps"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/content"
)

// Fields is a partial set of editable content fields, keyed by the JSON
// field name ("title", "body", "mediaKey", "thumbnailKey", "scheduledFor").
type Fields map[string]any

// Clone returns a shallow copy of the field set.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	return maps.Clone(f)
}

// PendingEdit tracks locally changed fields that are not yet confirmed saved.
type PendingEdit struct {
	Fields      Fields
	DirtySince  time.Time
	LastSavedAt time.Time
}

// ItemState is the client's view of one content item.
type ItemState struct {
	ID        uuid.UUID
	Type      content.Type
	Status    content.Status
	TeamID    *uuid.UUID
	Fields    Fields
	UpdatedAt time.Time
	Pending   PendingEdit
}

// Dirty reports whether the item has unsaved local changes.
func (s *ItemState) Dirty() bool {
	return len(s.Pending.Fields) > 0
}

// Store holds client-local state for open content items. All methods are
// safe for concurrent use. The store never talks to the network; the Client
// and Subscriber mutate it.
type Store struct {
	mu    sync.Mutex
	items map[uuid.UUID]*ItemState
	now   func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		items: make(map[uuid.UUID]*ItemState),
		now:   time.Now,
	}
}

// Seed loads the authoritative server snapshot of an item, replacing any
// previous state and discarding pending edits.
func (s *Store) Seed(state ItemState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.Fields = state.Fields.Clone()
	if state.Fields == nil {
		state.Fields = Fields{}
	}
	state.Pending = PendingEdit{}
	s.items[state.ID] = &state
}

// Get returns a copy of the item's state.
func (s *Store) Get(id uuid.UUID) (ItemState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.items[id]
	if !ok {
		return ItemState{}, false
	}

	out := *st
	out.Fields = st.Fields.Clone()
	out.Pending.Fields = st.Pending.Fields.Clone()
	return out, true
}

// ApplyLocal applies an optimistic field edit and records it as pending.
// DirtySince is set on the first edit of a clean item.
func (s *Store) ApplyLocal(id uuid.UUID, fields Fields) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.items[id]
	if !ok {
		return false
	}

	if st.Pending.Fields == nil {
		st.Pending.Fields = Fields{}
	}
	if len(st.Pending.Fields) == 0 {
		st.Pending.DirtySince = s.now()
	}

	for k, v := range fields {
		st.Fields[k] = v
		st.Pending.Fields[k] = v
	}
	return true
}

// SetStatus overwrites the item's status. Status is not locally editable
// outside the workflow gate, so remote values are always safe to apply.
func (s *Store) SetStatus(id uuid.UUID, status content.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.items[id]
	if !ok {
		return false
	}
	st.Status = status
	return true
}

// Reconcile adopts an authoritative server result: the item's status and
// logical clock, plus the saved field values. Pending entries are cleared
// only where the current pending value is the one that was saved; a field
// re-dirtied while the save was in flight stays pending.
func (s *Store) Reconcile(id uuid.UUID, saved Fields, status content.Status, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.items[id]
	if !ok {
		return
	}

	st.Status = status
	if !updatedAt.Before(st.UpdatedAt) {
		st.UpdatedAt = updatedAt
	}

	for k, v := range saved {
		// DeepEqual rather than ==: field values are any, and an
		// uncomparable value (slice, map) must not panic here.
		if cur, pending := st.Pending.Fields[k]; pending && reflect.DeepEqual(cur, v) {
			delete(st.Pending.Fields, k)
		}
	}

	st.Pending.LastSavedAt = s.now()
	if len(st.Pending.Fields) == 0 {
		st.Pending.DirtySince = time.Time{}
	}
}

// MergeRemote applies a remote field update. Events older than the known
// logical clock are ignored. Fields with an unresolved pending edit are
// never overwritten; everything else is merged. Reports whether the event
// was applied.
func (s *Store) MergeRemote(id uuid.UUID, fields Fields, updatedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.items[id]
	if !ok {
		return false
	}

	if updatedAt.Before(st.UpdatedAt) {
		return false
	}

	for k, v := range fields {
		if _, pending := st.Pending.Fields[k]; pending {
			continue
		}
		st.Fields[k] = v
	}
	st.UpdatedAt = updatedAt
	return true
}

// DiscardPending drops all unsaved local changes for the item. The field
// values remain as last applied; callers typically re-Seed after a fetch.
func (s *Store) DiscardPending(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.items[id]; ok {
		st.Pending.Fields = nil
		st.Pending.DirtySince = time.Time{}
	}
}

// Remove drops all state for the item, e.g. after a deletion event.
func (s *Store) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}
