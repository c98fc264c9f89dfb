package driverclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	shipmenthttpmapper "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/http/mapper"
)

type fakeMutator struct {
	err   error
	calls int
	keys  []string
}

func (m *fakeMutator) Do(_ context.Context, _, _ string, _ []byte, idempotencyKey string) (json.RawMessage, error) {
	m.calls++
	m.keys = append(m.keys, idempotencyKey)
	return nil, m.err
}

type fakeCapturer struct {
	captured []string
	keys     []string
	err      error
}

func (c *fakeCapturer) Capture(_ context.Context, _, path string, _ []byte, idempotencyKey string) error {
	if c.err != nil {
		return c.err
	}
	c.captured = append(c.captured, path)
	c.keys = append(c.keys, idempotencyKey)
	return nil
}

func TestSession_SuccessPassesThrough(t *testing.T) {
	capture := &fakeCapturer{}
	session := NewSession(&fakeMutator{}, capture)

	err := session.UpdateStatus(context.Background(), "s1", shipmenthttpmapper.UpdateStatusRequest{Status: "PICKED_UP"}, "key-1")
	require.NoError(t, err)
	require.Empty(t, capture.captured)
}

func TestSession_TransportFailureQueues(t *testing.T) {
	capture := &fakeCapturer{}
	session := NewSession(&fakeMutator{err: errors.New("dial tcp: no route to host")}, capture)

	err := session.UpdateStatus(context.Background(), "s1", shipmenthttpmapper.UpdateStatusRequest{Status: "PICKED_UP"}, "key-1")
	require.ErrorIs(t, err, ErrQueued)
	require.Equal(t, []string{"/shipments/s1/status"}, capture.captured)
}

func TestSession_CapturePreservesAttemptKey(t *testing.T) {
	capture := &fakeCapturer{}
	mutator := &fakeMutator{err: errors.New("dial tcp: no route to host")}
	session := NewSession(mutator, capture)

	// Explicit key: the capture must carry the key the attempt was sent
	// with, or a request that landed before the failure can never be
	// deduplicated on replay.
	err := session.Deliver(context.Background(), "s1", shipmenthttpmapper.DeliverRequest{}, "key-1")
	require.ErrorIs(t, err, ErrQueued)
	require.Equal(t, []string{"key-1"}, capture.keys)

	// No key given: the session mints one before the first send and the
	// capture sees that same key.
	err = session.Deliver(context.Background(), "s1", shipmenthttpmapper.DeliverRequest{}, "")
	require.ErrorIs(t, err, ErrQueued)
	require.Len(t, mutator.keys, 2)
	require.NotEmpty(t, mutator.keys[1])
	require.Equal(t, mutator.keys[1], capture.keys[1])
}

func TestSession_RejectionIsNeverQueued(t *testing.T) {
	capture := &fakeCapturer{}
	apiErr := &APIError{Status: http.StatusForbidden, Message: "Invalid delivery code"}
	session := NewSession(&fakeMutator{err: apiErr}, capture)

	err := session.Deliver(context.Background(), "s1", shipmenthttpmapper.DeliverRequest{DeliveryCode: "000000"}, "key-1")
	var got *APIError
	require.ErrorAs(t, err, &got)
	require.Equal(t, http.StatusForbidden, got.Status)
	require.Empty(t, capture.captured)
}

func TestSession_CaptureFailureSurfaces(t *testing.T) {
	capture := &fakeCapturer{err: errors.New("disk full")}
	session := NewSession(&fakeMutator{err: errors.New("dial tcp: no route to host")}, capture)

	err := session.Deliver(context.Background(), "s1", shipmenthttpmapper.DeliverRequest{}, "key-1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrQueued)
}
