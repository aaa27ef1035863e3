// Package scheduler publishes content items whose scheduled time has passed.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/events"
)

// Publisher receives the events emitted for published items.
type Publisher interface {
	Publish(e events.Event)
}

// Scheduler polls SCHEDULED content items and transitions the due ones to
// PUBLISHED, emitting a status event for each.
type Scheduler struct {
	repo     content.Repository
	hub      Publisher
	interval time.Duration
	now      func() time.Time
	observe  func() // observability hook per published item, may be nil
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithObserver registers a callback invoked for every item published.
func WithObserver(fn func()) Option {
	return func(s *Scheduler) { s.observe = fn }
}

// New creates a new Scheduler.
func New(repo content.Repository, hub Publisher, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:     repo,
		hub:      hub,
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the publishing loop. It blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("schedule publisher started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("schedule publisher stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one publishing pass: every SCHEDULED item whose scheduled time
// is not in the future becomes PUBLISHED.
func (s *Scheduler) Tick(ctx context.Context) {
	status := content.StatusScheduled
	due := s.now().UTC()

	result, err := s.repo.List(ctx, content.ListFilter{
		Status:    &status,
		DueBefore: &due,
		Page:      1,
		Limit:     100,
	})
	if err != nil {
		slog.Error("scheduler: failed to list due items", "error", err)
		return
	}

	for i := range result.Items {
		if ctx.Err() != nil {
			return
		}
		s.publishOne(ctx, &result.Items[i])
	}
}

func (s *Scheduler) publishOne(ctx context.Context, it *content.Item) {
	updated, err := s.repo.UpdateStatus(ctx, it.ID, content.StatusPublished)
	if err != nil {
		slog.Error("scheduler: failed to publish item", "id", it.ID, "error", err)
		return
	}

	s.hub.Publish(events.StatusEvent(updated))
	if s.observe != nil {
		s.observe()
	}

	slog.Info("scheduler: published scheduled item", "id", updated.ID, "scheduledFor", it.ScheduledFor)
}
