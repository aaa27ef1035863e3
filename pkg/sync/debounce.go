package sync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleWindow is the quiet period after the last edit before an
// autosave fires.
const DefaultIdleWindow = 3 * time.Second

// Saver persists a set of dirty fields. Satisfied by *Client.
type Saver interface {
	SubmitEdit(ctx context.Context, id uuid.UUID, fields Fields) error
}

// Debouncer converts a stream of local field edits into a bounded rate of
// save calls: each edit restarts the item's idle timer, and when the timer
// elapses one save carries the union of everything changed since the last
// flush. At most one timer exists per content id.
type Debouncer struct {
	saver    Saver
	idle     time.Duration
	onResult func(id uuid.UUID, err error)

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	dirty  map[uuid.UUID]Fields
}

// DebouncerOption configures a Debouncer.
type DebouncerOption func(*Debouncer)

// WithIdleWindow overrides the idle window.
func WithIdleWindow(d time.Duration) DebouncerOption {
	return func(db *Debouncer) { db.idle = d }
}

// WithResultHandler registers a callback receiving each autosave outcome, so
// the UI can surface "Saved" indicators and retryable failures.
func WithResultHandler(fn func(id uuid.UUID, err error)) DebouncerOption {
	return func(db *Debouncer) { db.onResult = fn }
}

// NewDebouncer creates a Debouncer saving through the given Saver.
func NewDebouncer(saver Saver, opts ...DebouncerOption) *Debouncer {
	db := &Debouncer{
		saver:  saver,
		idle:   DefaultIdleWindow,
		timers: make(map[uuid.UUID]*time.Timer),
		dirty:  make(map[uuid.UUID]Fields),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Edit records a local field change and (re)starts the item's idle timer.
func (db *Debouncer) Edit(id uuid.UUID, fields Fields) {
	db.mu.Lock()
	defer db.mu.Unlock()

	d := db.dirty[id]
	if d == nil {
		d = Fields{}
		db.dirty[id] = d
	}
	for k, v := range fields {
		d[k] = v
	}

	if t, ok := db.timers[id]; ok {
		t.Stop()
	}
	db.timers[id] = time.AfterFunc(db.idle, func() {
		db.flush(context.Background(), id)
	})
}

// Flush forces an immediate save of the item's dirty fields, cancelling its
// timer. Intended for page-leave: the attempt is best effort; a retryable
// failure leaves the fields dirty for a later cycle but is not retried here.
func (db *Debouncer) Flush(ctx context.Context, id uuid.UUID) error {
	return db.flush(ctx, id)
}

// FlushAll force-saves every dirty item. Used on teardown.
func (db *Debouncer) FlushAll(ctx context.Context) {
	db.mu.Lock()
	ids := make([]uuid.UUID, 0, len(db.dirty))
	for id := range db.dirty {
		ids = append(ids, id)
	}
	db.mu.Unlock()

	for _, id := range ids {
		_ = db.flush(ctx, id)
	}
}

// Cancel drops the item's dirty fields and timer without saving.
func (db *Debouncer) Cancel(id uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if t, ok := db.timers[id]; ok {
		t.Stop()
		delete(db.timers, id)
	}
	delete(db.dirty, id)
}

func (db *Debouncer) flush(ctx context.Context, id uuid.UUID) error {
	db.mu.Lock()
	fields := db.dirty[id]
	delete(db.dirty, id)
	if t, ok := db.timers[id]; ok {
		t.Stop()
		delete(db.timers, id)
	}
	db.mu.Unlock()

	if len(fields) == 0 {
		return nil
	}

	err := db.saver.SubmitEdit(ctx, id, fields)
	if IsRetryable(err) {
		db.requeue(id, fields)
	}
	if db.onResult != nil {
		db.onResult(id, err)
	}
	return err
}

// requeue puts fields that failed to save back into the item's dirty set so
// the next autosave cycle or page-leave flush carries them. Edits made while
// the save was on the wire win over the failed values.
func (db *Debouncer) requeue(id uuid.UUID, fields Fields) {
	db.mu.Lock()
	defer db.mu.Unlock()

	d := db.dirty[id]
	if d == nil {
		d = Fields{}
		db.dirty[id] = d
	}
	for k, v := range fields {
		if _, ok := d[k]; !ok {
			d[k] = v
		}
	}
}
