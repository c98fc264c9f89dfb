package ports

import (
	"context"
	"errors"
	"time"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
)

// ErrIdempotencyConflict signals the key was already used with a different
// request payload.
var ErrIdempotencyConflict = errors.New("idempotency key already used with a different request")

// IdempotencyRecord remembers a mutation that was already applied, so a
// replayed request (typically from the driver offline queue) is answered
// without re-applying its side effects.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	ShipmentID  string
	Status      domain.Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdempotencyStore persists idempotency records.
type IdempotencyStore interface {
	// Get returns the record for key, or nil when absent.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record, or returns the existing one. A hash mismatch
	// against a stored record yields ErrIdempotencyConflict.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}
