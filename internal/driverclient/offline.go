package driverclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	shipmenthttpmapper "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/http/mapper"
)

// Mutator issues one mutating request carrying an idempotency key. It is the
// replay surface the offline queue drives.
type Mutator interface {
	Do(ctx context.Context, method, path string, body []byte, idempotencyKey string) (json.RawMessage, error)
}

// Capturer stores a mutating request for later replay. Implemented by the
// offline queue. The key is the one the failed attempt was sent with, so a
// replay matches any server-side record the original may have created.
type Capturer interface {
	Capture(ctx context.Context, method, path string, body []byte, idempotencyKey string) error
}

// Session layers offline capture over the client: a mutating call that fails
// because the server is unreachable is queued and reported as deferred, while
// a server-side rejection is returned to the caller untouched. That split is
// the contract drivers rely on: a wrong delivery code must block immediately,
// never sit in the queue.
type Session struct {
	client  Mutator
	capture Capturer
}

// ErrQueued marks a mutation that was captured for replay instead of sent.
// Callers treat it as a deferred success.
var ErrQueued = errors.New("request queued for replay")

// NewSession wires a session over the client and capture queue.
func NewSession(client Mutator, capture Capturer) *Session {
	return &Session{client: client, capture: capture}
}

// UpdateStatus applies a transition, queueing on connectivity loss.
func (s *Session) UpdateStatus(ctx context.Context, shipmentID string, req shipmenthttpmapper.UpdateStatusRequest, idempotencyKey string) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}
	return s.mutate(ctx, http.MethodPut, "/shipments/"+shipmentID+"/status", body, idempotencyKey)
}

// Deliver completes a delivery, queueing on connectivity loss.
func (s *Session) Deliver(ctx context.Context, shipmentID string, req shipmenthttpmapper.DeliverRequest, idempotencyKey string) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}
	return s.mutate(ctx, http.MethodPost, "/shipments/"+shipmentID+"/deliver", body, idempotencyKey)
}

func (s *Session) mutate(ctx context.Context, method, path string, body []byte, idempotencyKey string) error {
	// The key is fixed before the first send. If the request reaches the
	// server but the response is lost, the captured replay carries the same
	// key and matches the record the original attempt wrote.
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	_, err := s.client.Do(ctx, method, path, body, idempotencyKey)
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		// The server answered and refused. Queueing would only defer a
		// decision the driver has to make now.
		return err
	}
	if s.capture == nil {
		return err
	}
	if captureErr := s.capture.Capture(ctx, method, path, body, idempotencyKey); captureErr != nil {
		return fmt.Errorf("capture after transport failure: %w", captureErr)
	}
	return ErrQueued
}
