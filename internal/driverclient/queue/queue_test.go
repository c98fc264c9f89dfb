package queue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parceltrack/parcel-api-server/internal/driverclient"
)

// fakeSender scripts per-path outcomes and records delivery order.
type fakeSender struct {
	mu       sync.Mutex
	outcomes map[string]error
	sent     []Entry
}

func newFakeSender() *fakeSender {
	return &fakeSender{outcomes: map[string]error{}}
}

func (s *fakeSender) Send(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.outcomes[entry.Path]; ok {
		return err
	}
	s.sent = append(s.sent, entry)
	return nil
}

func (s *fakeSender) sentPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.sent))
	for _, e := range s.sent {
		paths = append(paths, e.Path)
	}
	return paths
}

func TestEnqueue_AssignsIDsAndKeys(t *testing.T) {
	q := New(NewMemoryStore(), newFakeSender())

	body, _ := json.Marshal(map[string]string{"status": "PICKED_UP"})
	entry, err := q.Enqueue(context.Background(), http.MethodPut, "/shipments/s1/status", body, "")
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	require.NotEmpty(t, entry.IdempotencyKey)
	require.NotEqual(t, entry.ID, entry.IdempotencyKey)
	require.False(t, entry.EnqueuedAt.IsZero())

	pending, err := q.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestEnqueue_PreservesAttemptKey(t *testing.T) {
	sender := newFakeSender()
	q := New(NewMemoryStore(), sender)

	// The key the failed attempt was sent with must survive into the replay,
	// or the server can never deduplicate a request that actually landed.
	entry, err := q.Enqueue(context.Background(), http.MethodPost, "/shipments/s1/deliver", nil, "attempt-key-1")
	require.NoError(t, err)
	require.Equal(t, "attempt-key-1", entry.IdempotencyKey)

	require.NoError(t, q.replay(context.Background()))
	require.Len(t, sender.sent, 1)
	require.Equal(t, "attempt-key-1", sender.sent[0].IdempotencyKey)
}

func TestReplay_PreservesEnqueueOrder(t *testing.T) {
	sender := newFakeSender()
	q := New(NewMemoryStore(), sender)

	paths := []string{"/shipments/s1/status", "/shipments/s2/status", "/shipments/s1/deliver"}
	for _, p := range paths {
		_, err := q.Enqueue(context.Background(), http.MethodPut, p, nil, "")
		require.NoError(t, err)
	}

	require.NoError(t, q.replay(context.Background()))
	require.Equal(t, paths, sender.sentPaths())

	pending, err := q.Pending(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestReplay_TransportFailureAbortsPass(t *testing.T) {
	sender := newFakeSender()
	sender.outcomes["/shipments/s2/status"] = errors.New("dial tcp: connection refused")
	q := New(NewMemoryStore(), sender)

	for _, p := range []string{"/shipments/s1/status", "/shipments/s2/status", "/shipments/s3/status"} {
		_, err := q.Enqueue(context.Background(), http.MethodPut, p, nil, "")
		require.NoError(t, err)
	}

	err := q.replay(context.Background())
	require.Error(t, err)
	// s1 drained, s2 and s3 kept in order for the next pass.
	require.Equal(t, []string{"/shipments/s1/status"}, sender.sentPaths())
	pending, listErr := q.Pending(context.Background())
	require.NoError(t, listErr)
	require.Len(t, pending, 2)
	require.Equal(t, "/shipments/s2/status", pending[0].Path)
	require.Equal(t, "/shipments/s3/status", pending[1].Path)
}

func TestReplay_RejectionRemovesEntryAndContinues(t *testing.T) {
	sender := newFakeSender()
	sender.outcomes["/shipments/s1/deliver"] = &driverclient.APIError{Status: http.StatusForbidden, Message: "Invalid delivery code"}

	var rejected []Entry
	q := New(NewMemoryStore(), sender, WithRejectionHandler(func(entry Entry, _ error) {
		rejected = append(rejected, entry)
	}))

	_, err := q.Enqueue(context.Background(), http.MethodPost, "/shipments/s1/deliver", nil, "")
	require.NoError(t, err)
	_, err = q.Enqueue(context.Background(), http.MethodPut, "/shipments/s2/status", nil, "")
	require.NoError(t, err)

	require.NoError(t, q.replay(context.Background()))

	// The rejected entry is gone, the rest of the pass still ran.
	require.Equal(t, []string{"/shipments/s2/status"}, sender.sentPaths())
	require.Len(t, rejected, 1)
	require.Equal(t, "/shipments/s1/deliver", rejected[0].Path)

	pending, err := q.Pending(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestKick_Coalesces(t *testing.T) {
	q := New(NewMemoryStore(), newFakeSender())

	// Many kicks while no consumer runs collapse into a single pending event.
	for i := 0; i < 10; i++ {
		q.Kick()
	}
	require.Len(t, q.events, 1)
}

func TestRun_DrainsOnKick(t *testing.T) {
	sender := newFakeSender()
	q := New(NewMemoryStore(), sender)

	_, err := q.Enqueue(context.Background(), http.MethodPut, "/shipments/s1/status", nil, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Run(ctx)
	}()

	q.Kick()
	require.Eventually(t, func() bool {
		pending, err := q.Pending(context.Background())
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	require.Equal(t, []string{"/shipments/s1/status"}, sender.sentPaths())
}

func TestSqliteStore_RoundTrip(t *testing.T) {
	store, err := OpenSqliteStore(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	defer store.Close()

	first := Entry{
		ID:             "e1",
		IdempotencyKey: "k1",
		Method:         http.MethodPut,
		Path:           "/shipments/s1/status",
		Body:           []byte(`{"status":"PICKED_UP"}`),
		EnqueuedAt:     time.Now().UTC(),
	}
	second := Entry{
		ID:             "e2",
		IdempotencyKey: "k2",
		Method:         http.MethodPost,
		Path:           "/shipments/s1/deliver",
		EnqueuedAt:     first.EnqueuedAt.Add(time.Second),
	}
	require.NoError(t, store.Append(context.Background(), first))
	require.NoError(t, store.Append(context.Background(), second))

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "e1", entries[0].ID)
	require.Equal(t, []byte(`{"status":"PICKED_UP"}`), entries[0].Body)
	require.Equal(t, "k2", entries[1].IdempotencyKey)

	require.NoError(t, store.Remove(context.Background(), "e1"))
	entries, err = store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "e2", entries[0].ID)

	// Removing an absent entry is a no-op.
	require.NoError(t, store.Remove(context.Background(), "missing"))
}
