// Package queue buffers mutating requests issued while the driver terminal
// is offline and replays them in order once connectivity returns.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/parcel-api-server/internal/driverclient"
)

// Entry is one captured mutating request.
type Entry struct {
	ID string
	// IdempotencyKey travels with every replay attempt so the server can
	// deduplicate a request that already succeeded before the client
	// observed it as failed.
	IdempotencyKey string
	Method         string
	Path           string
	Body           []byte
	EnqueuedAt     time.Time
}

// Store persists queue entries across restarts. List returns entries in
// enqueue order.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
	Remove(ctx context.Context, id string) error
}

// Sender delivers one entry to the server. A returned *driverclient.APIError
// is an authoritative rejection; any other error is a transport failure.
type Sender interface {
	Send(ctx context.Context, entry Entry) error
}

// MutatorSender delivers entries through the driver client.
type MutatorSender struct {
	Client driverclient.Mutator
}

// Send replays one entry, re-attaching its idempotency key.
func (s MutatorSender) Send(ctx context.Context, entry Entry) error {
	_, err := s.Client.Do(ctx, entry.Method, entry.Path, entry.Body, entry.IdempotencyKey)
	return err
}

var _ Sender = MutatorSender{}

// RejectionHandler is notified when the server refuses a replayed entry.
// The entry has already been removed from the queue.
type RejectionHandler func(entry Entry, err error)

// Queue is the single-consumer offline mutation queue. Enqueue may be called
// from any goroutine; replay runs only inside Run, so two replay passes never
// overlap.
type Queue struct {
	store      Store
	sender     Sender
	logger     *slog.Logger
	onRejected RejectionHandler
	events     chan struct{}
	now        func() time.Time
}

// Option configures the queue.
type Option func(*Queue)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithRejectionHandler registers the callback for authoritative rejections.
func WithRejectionHandler(handler RejectionHandler) Option {
	return func(q *Queue) {
		q.onRejected = handler
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// New creates a queue over the given store and sender.
func New(store Store, sender Sender, opts ...Option) *Queue {
	q := &Queue{
		store:  store,
		sender: sender,
		logger: slog.Default(),
		// Buffered by one so notifications coalesce: a kick during a
		// running pass schedules exactly one more pass.
		events: make(chan struct{}, 1),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue captures a mutating request for later replay and returns the
// stored entry. The caller reports this to the user as a deferred success,
// not a failure. When the failed attempt already carried an idempotency key,
// that key is preserved so the replay matches any server-side record the
// original created; a fresh key is minted only for keyless captures.
func (q *Queue) Enqueue(ctx context.Context, method, path string, body []byte, idempotencyKey string) (Entry, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	entry := Entry{
		ID:             uuid.NewString(),
		IdempotencyKey: idempotencyKey,
		Method:         method,
		Path:           path,
		Body:           body,
		EnqueuedAt:     q.now().UTC(),
	}
	if err := q.store.Append(ctx, entry); err != nil {
		return Entry{}, err
	}
	q.logger.Info("request queued for replay",
		slog.String("entry.id", entry.ID),
		slog.String("method", method),
		slog.String("path", path))
	return entry, nil
}

// Capture implements the client session's capture surface.
func (q *Queue) Capture(ctx context.Context, method, path string, body []byte, idempotencyKey string) error {
	_, err := q.Enqueue(ctx, method, path, body, idempotencyKey)
	return err
}

// Pending returns the entries waiting for replay, oldest first.
func (q *Queue) Pending(ctx context.Context) ([]Entry, error) {
	return q.store.List(ctx)
}

// Kick schedules a replay pass. Safe to call from any goroutine; calls made
// while a pass is already scheduled collapse into one.
func (q *Queue) Kick() {
	select {
	case q.events <- struct{}{}:
	default:
	}
}

// Run consumes replay events until ctx is cancelled. It is the only place
// replay happens, which keeps passes strictly sequential.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.events:
			if err := q.replay(ctx); err != nil {
				q.logger.Warn("replay pass aborted", slog.String("error", err.Error()))
			}
		}
	}
}

// replay sends pending entries oldest-first. An authoritative rejection
// removes the entry and moves on; a transport failure aborts the pass with
// the remaining entries intact, preserving order for the next pass.
func (q *Queue) replay(ctx context.Context) error {
	entries, err := q.store.List(ctx)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		err := q.sender.Send(ctx, entry)
		var apiErr *driverclient.APIError
		switch {
		case err == nil:
			if err := q.store.Remove(ctx, entry.ID); err != nil {
				return err
			}
			q.logger.Info("queued request replayed",
				slog.String("entry.id", entry.ID),
				slog.String("path", entry.Path))
		case errors.As(err, &apiErr):
			if err := q.store.Remove(ctx, entry.ID); err != nil {
				return err
			}
			q.logger.Warn("queued request rejected by server",
				slog.String("entry.id", entry.ID),
				slog.String("path", entry.Path),
				slog.Int("status", apiErr.Status),
				slog.String("message", apiErr.Message))
			if q.onRejected != nil {
				q.onRejected(entry, apiErr)
			}
		default:
			return err
		}
	}
	return nil
}
