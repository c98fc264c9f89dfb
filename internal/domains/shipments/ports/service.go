package ports

import (
	"context"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
)

// Actor is the authenticated caller as supplied by the identity layer.
// The core trusts it unconditionally.
type Actor struct {
	ID   string
	Role usersdomain.Role
}

// CreateShipmentInput carries everything needed to register a shipment.
type CreateShipmentInput struct {
	Sender    domain.Party
	Recipient domain.Recipient
	Package   domain.PackageInfo
	// DriverID optionally assigns a driver at creation time.
	DriverID *string
	// GenerateDeliveryCode opts the shipment into code-verified delivery.
	GenerateDeliveryCode bool
}

// UpdateStatusInput is a generic status transition request.
type UpdateStatusInput struct {
	Status   domain.Status
	Note     string
	Location string
	// IdempotencyKey deduplicates replays of the same mutation; empty means
	// no deduplication.
	IdempotencyKey string
}

// DeliverInput completes a delivery with optional code and evidence.
type DeliverInput struct {
	DeliveryCode   string
	SignatureURL   string
	PhotoURL       string
	Note           string
	IdempotencyKey string
}

// UserDirectory resolves user records for assignment eligibility checks.
// Implemented by the users context repository.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*usersdomain.User, error)
}

// Service exposes the shipment lifecycle use cases to adapters.
type Service interface {
	Create(ctx context.Context, input CreateShipmentInput, creatorID string) (*domain.Shipment, error)
	GetByID(ctx context.Context, id string) (*domain.Shipment, error)
	TrackByNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error)
	List(ctx context.Context, filter ListFilter, actor Actor) ([]*domain.Shipment, int64, error)
	DriverShipments(ctx context.Context, driverID string, status domain.Status) ([]*domain.Shipment, error)
	Update(ctx context.Context, id string, fields UpdateFields) (*domain.Shipment, error)
	UpdateStatus(ctx context.Context, id string, input UpdateStatusInput, actor Actor) (*domain.Shipment, error)
	Deliver(ctx context.Context, id string, input DeliverInput, actor Actor) (*domain.Shipment, error)
	AssignDriver(ctx context.Context, id, driverID string) (*domain.Shipment, error)
	Delete(ctx context.Context, id string) error
}
