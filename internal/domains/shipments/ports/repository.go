package ports

import (
	"context"
	"errors"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
)

var (
	ErrNotFound            = errors.New("shipment not found")
	ErrTrackingNumberTaken = errors.New("tracking number already exists")
)

// ListFilter narrows shipment listings. Zero values mean "no filter".
type ListFilter struct {
	Page     int
	Limit    int
	Status   domain.Status
	DriverID string
	Search   string
}

// TransitionSpec describes one atomic status change. The repository appends
// the ledger entry and updates the shipment row in a single transaction,
// re-checking the non-terminal precondition inside it.
type TransitionSpec struct {
	Target   domain.Status
	Note     string
	Location string
	// Evidence is persisted only on the DELIVERED transition.
	SignatureURL string
	PhotoURL     string
}

// UpdateFields carries the mutable descriptive sections of a shipment.
// Nil sections are left untouched.
type UpdateFields struct {
	Sender    *domain.Party
	Recipient *domain.Recipient
	Package   *domain.PackageInfo
}

// Repository persists shipments together with their status ledger. All
// mutations that touch status go through Transition; callers never write the
// status column directly.
type Repository interface {
	// Create persists the shipment plus the history entries it carries in one
	// atomic unit. Returns ErrTrackingNumberTaken on a tracking collision.
	Create(ctx context.Context, shipment *domain.Shipment) (*domain.Shipment, error)
	GetByID(ctx context.Context, id string) (*domain.Shipment, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Shipment, int64, error)
	ListByDriver(ctx context.Context, driverID string, status domain.Status) ([]*domain.Shipment, error)
	// Transition applies spec atomically. Returns domain.ErrShipmentFinalized
	// when the shipment is already terminal at commit time.
	Transition(ctx context.Context, id string, spec TransitionSpec) (*domain.Shipment, error)
	// Update applies descriptive field changes; rejected once delivered.
	Update(ctx context.Context, id string, fields UpdateFields) (*domain.Shipment, error)
	// AssignDriver writes the single nullable driver reference.
	AssignDriver(ctx context.Context, id, driverID string) (*domain.Shipment, error)
	// Delete removes the shipment and its ledger; rejected once delivered.
	Delete(ctx context.Context, id string) error
}
