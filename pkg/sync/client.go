package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/team"
	"github.com/uplora/uplora/internal/workflow"
)

// DefaultTimeout bounds a single mutation request. A save that outlives it
// is reported as a retryable network failure instead of hanging the UI in a
// permanent "saving" state.
const DefaultTimeout = 30 * time.Second

// Client performs optimistic mutations against the backend. Edits and
// transitions are validated through the workflow gate before any network
// traffic, applied locally at once, and reconciled with the authoritative
// server response. Mutations are serialized per content id: a save issued
// while another is in flight queues and supersedes rather than racing it.
type Client struct {
	store   *Store
	backend Backend
	role    team.Role
	timeout time.Duration

	mu     sync.Mutex
	queues map[uuid.UUID]*saveQueue
	flight map[uuid.UUID]*sync.Mutex
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a Client acting with the given role. The role is the
// actor's team role for team content, or OWNER for personal content.
func NewClient(store *Store, backend Backend, role team.Role, opts ...ClientOption) *Client {
	c := &Client{
		store:   store,
		backend: backend,
		role:    role,
		timeout: DefaultTimeout,
		queues:  make(map[uuid.UUID]*saveQueue),
		flight:  make(map[uuid.UUID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open fetches the item from the backend and seeds the store with it.
func (c *Client) Open(ctx context.Context, id uuid.UUID) (ItemState, error) {
	remote, err := c.backend.Fetch(ctx, id)
	if err != nil {
		return ItemState{}, wrapTransport(err)
	}

	c.store.Seed(remote.State())
	st, _ := c.store.Get(id)
	return st, nil
}

// SubmitEdit validates, optimistically applies, and persists a field edit.
// If the workflow gate forbids editing, it returns ErrEditLocked without
// touching the network or local state. On a transport failure the pending
// edit is kept so nothing is lost; the caller may retry.
func (c *Client) SubmitEdit(ctx context.Context, id uuid.UUID, fields Fields) error {
	st, ok := c.store.Get(id)
	if !ok {
		return ErrUnknownItem
	}

	if !workflow.CanEdit(st.Status, c.role) {
		return ErrEditLocked
	}

	if len(fields) == 0 {
		return nil
	}

	c.store.ApplyLocal(id, fields)

	ps := c.enqueue(id, fields)
	select {
	case <-ctx.Done():
		// The request keeps running; effects are idempotent upserts.
		return ctx.Err()
	case <-ps.done:
		return ps.err
	}
}

// SubmitTransition validates a workflow action, optimistically applies the
// candidate status, and reconciles the server's authoritative answer, which
// may differ (approve can land on PUBLISHED). Denied transitions return a
// TransitionDeniedError with zero network calls.
func (c *Client) SubmitTransition(ctx context.Context, id uuid.UUID, action workflow.Action) (content.Status, error) {
	st, ok := c.store.Get(id)
	if !ok {
		return "", ErrUnknownItem
	}

	decision := workflow.Decide(st.Status, c.role, st.TeamID != nil, action)
	if !decision.Allowed {
		return "", &TransitionDeniedError{Action: action, Reason: decision.Reason}
	}

	c.store.SetStatus(id, decision.Next)

	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	mu := c.lockFor(id)
	mu.Lock()
	authoritative, err := c.backend.Transition(tctx, id, action)
	mu.Unlock()

	if err != nil {
		// Optimistic status is kept; the next live update or fetch corrects it.
		return "", wrapTransport(err)
	}

	c.store.SetStatus(id, authoritative)
	return authoritative, nil
}

type pendingSave struct {
	fields Fields
	done   chan struct{}
	err    error
}

type saveQueue struct {
	inflight bool
	next     *pendingSave
}

// enqueue registers a save for the item. If one is already in flight, the
// fields merge into the single queued successor, which fires once the
// current request resolves.
func (c *Client) enqueue(id uuid.UUID, fields Fields) *pendingSave {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := c.queues[id]
	if q == nil {
		q = &saveQueue{}
		c.queues[id] = q
	}

	if q.inflight {
		if q.next == nil {
			q.next = &pendingSave{fields: Fields{}, done: make(chan struct{})}
		}
		for k, v := range fields {
			q.next.fields[k] = v
		}
		return q.next
	}

	q.inflight = true
	ps := &pendingSave{fields: fields.Clone(), done: make(chan struct{})}
	go c.run(id, ps)
	return ps
}

func (c *Client) run(id uuid.UUID, ps *pendingSave) {
	for ps != nil {
		ps.err = c.save(id, ps.fields)
		close(ps.done)

		c.mu.Lock()
		q := c.queues[id]
		ps = q.next
		q.next = nil
		if ps == nil {
			q.inflight = false
		}
		c.mu.Unlock()
	}
}

func (c *Client) save(id uuid.UUID, fields Fields) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	mu := c.lockFor(id)
	mu.Lock()
	remote, err := c.backend.UpdateFields(ctx, id, fields)
	mu.Unlock()

	if err != nil {
		return wrapTransport(err)
	}

	c.store.Reconcile(id, fields, remote.Status, remote.UpdatedAt)
	return nil
}

func (c *Client) lockFor(id uuid.UUID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	mu := c.flight[id]
	if mu == nil {
		mu = &sync.Mutex{}
		c.flight[id] = mu
	}
	return mu
}

// wrapTransport converts unrecognized errors into NetworkError while
// passing domain denials through untouched.
func wrapTransport(err error) error {
	var (
		denied *TransitionDeniedError
		neterr *NetworkError
	)
	if errors.Is(err, ErrEditLocked) || errors.As(err, &denied) || errors.As(err, &neterr) {
		return err
	}
	return &NetworkError{Err: err}
}
