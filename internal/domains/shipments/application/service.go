package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
	usersports "github.com/parceltrack/parcel-api-server/internal/domains/users/ports"
)

// maxTrackingAttempts caps the generate-check-retry loop. The 36^5 daily
// keyspace makes collisions rare, but an uncapped loop is an availability
// risk under a broken random source.
const maxTrackingAttempts = 10

// Service orchestrates the shipment lifecycle use cases. Every status
// mutation flows through here and then through one transactional repository
// call; nothing else writes the status column or the ledger.
type Service struct {
	repo  ports.Repository
	users ports.UserDirectory
	idem  ports.IdempotencyStore
	now   func() time.Time
}

type Option func(*Service)

// WithIdempotencyStore enables replay deduplication for keyed mutations.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) { s.idem = store }
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the shipments service with its dependencies.
func NewService(repo ports.Repository, users ports.UserDirectory, opts ...Option) *Service {
	s := &Service{repo: repo, users: users, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create registers a shipment with a unique tracking number and its first
// ledger entry. Shipment row and entry are persisted in one atomic unit: a
// shipment never exists without history.
func (s *Service) Create(ctx context.Context, input ports.CreateShipmentInput, creatorID string) (*domain.Shipment, error) {
	shipment := &domain.Shipment{
		ID:          uuid.NewString(),
		Status:      domain.StatusPending,
		Sender:      input.Sender,
		Recipient:   input.Recipient,
		Package:     input.Package,
		CreatedByID: creatorID,
	}
	if err := shipment.Validate(); err != nil {
		return nil, mapError(err)
	}
	if input.DriverID != nil {
		if _, err := s.eligibleDriver(ctx, *input.DriverID); err != nil {
			return nil, err
		}
		driverID := *input.DriverID
		shipment.DriverID = &driverID
	}
	if input.GenerateDeliveryCode {
		shipment.DeliveryCode = domain.GenerateDeliveryCode()
	}

	for attempt := 0; attempt < maxTrackingAttempts; attempt++ {
		candidate := domain.GenerateTrackingNumber(s.now())
		if _, err := s.repo.GetByTrackingNumber(ctx, candidate); err == nil {
			continue
		} else if err != ports.ErrNotFound {
			return nil, err
		}
		shipment.TrackingNumber = candidate
		shipment.History = []domain.HistoryEntry{{
			ID:         uuid.NewString(),
			ShipmentID: shipment.ID,
			Status:     domain.StatusPending,
			Note:       domain.NoteShipmentCreated,
			CreatedAt:  s.now(),
		}}
		saved, err := s.repo.Create(ctx, shipment)
		if err == ports.ErrTrackingNumberTaken {
			// Lost the race against a concurrent creation; regenerate.
			continue
		}
		if err != nil {
			return nil, mapError(err)
		}
		return saved, nil
	}
	return nil, ErrTrackingExhausted
}

// GetByID loads a shipment with its full ordered history.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return s.repo.GetByID(ctx, id)
}

// TrackByNumber resolves the public tracking lookup.
func (s *Service) TrackByNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	return s.repo.GetByTrackingNumber(ctx, trackingNumber)
}

// List returns shipments matching the filter. Drivers are scoped to their
// own shipments regardless of the filter they send.
func (s *Service) List(ctx context.Context, filter ports.ListFilter, actor ports.Actor) ([]*domain.Shipment, int64, error) {
	if actor.Role == usersdomain.RoleDriver {
		filter.DriverID = actor.ID
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	return s.repo.List(ctx, filter)
}

// DriverShipments returns the shipments assigned to one driver.
func (s *Service) DriverShipments(ctx context.Context, driverID string, status domain.Status) ([]*domain.Shipment, error) {
	return s.repo.ListByDriver(ctx, driverID, status)
}

// Update applies descriptive field changes to a non-delivered shipment.
func (s *Service) Update(ctx context.Context, id string, fields ports.UpdateFields) (*domain.Shipment, error) {
	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// UpdateStatus validates and applies one status transition, appending the
// ledger entry and writing the new status atomically.
func (s *Service) UpdateStatus(ctx context.Context, id string, input ports.UpdateStatusInput, actor ports.Actor) (*domain.Shipment, error) {
	if !input.Status.Valid() {
		return nil, mapError(domain.ErrInvalidStatus)
	}
	shipment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(actor, shipment, input.Status) {
		return nil, ErrForbidden
	}
	// Replay lookup runs before the terminal guard: once the original
	// request committed a terminal status, a retry carrying the same key
	// must get the applied result back, not a transition error.
	hash, err := fingerprintStatusUpdate(id, input)
	if err != nil {
		return nil, err
	}
	if replayed, ok, err := s.replayed(ctx, input.IdempotencyKey, hash); err != nil || ok {
		return replayed, err
	}
	if err := shipment.CanTransitionTo(input.Status); err != nil {
		return nil, mapError(err)
	}
	updated, err := s.repo.Transition(ctx, id, ports.TransitionSpec{
		Target:   input.Status,
		Note:     input.Note,
		Location: input.Location,
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.remember(ctx, input.IdempotencyKey, hash, updated)
	return updated, nil
}

// Deliver completes the terminal DELIVERED transition: ownership check,
// delivery-code verification, then the atomic transition with evidence.
// A failed code check returns before anything is written, so no ledger
// entry records the attempt.
func (s *Service) Deliver(ctx context.Context, id string, input ports.DeliverInput, actor ports.Actor) (*domain.Shipment, error) {
	shipment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !shipment.AssignedTo(actor.ID) {
		return nil, ErrForbidden
	}
	if err := shipment.VerifyDeliveryCode(input.DeliveryCode); err != nil {
		return nil, mapError(err)
	}
	// Replay lookup runs before the terminal guard, so a retry of a deliver
	// that already committed is answered with the applied result instead of
	// bouncing off the DELIVERED state it created.
	hash, err := fingerprintDeliver(id, input)
	if err != nil {
		return nil, err
	}
	if replayed, ok, err := s.replayed(ctx, input.IdempotencyKey, hash); err != nil || ok {
		return replayed, err
	}
	if err := shipment.CanTransitionTo(domain.StatusDelivered); err != nil {
		return nil, mapError(err)
	}
	note := input.Note
	if note == "" {
		note = domain.NoteDelivered
	}
	updated, err := s.repo.Transition(ctx, id, ports.TransitionSpec{
		Target:       domain.StatusDelivered,
		Note:         note,
		SignatureURL: input.SignatureURL,
		PhotoURL:     input.PhotoURL,
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.remember(ctx, input.IdempotencyKey, hash, updated)
	return updated, nil
}

// AssignDriver validates the candidate and couples the shipment to them.
// No ledger entry is written for assignments.
func (s *Service) AssignDriver(ctx context.Context, id, driverID string) (*domain.Shipment, error) {
	if _, err := s.eligibleDriver(ctx, driverID); err != nil {
		return nil, err
	}
	updated, err := s.repo.AssignDriver(ctx, id, driverID)
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// Delete removes a shipment and its ledger; delivered shipments are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	return mapError(s.repo.Delete(ctx, id))
}

func (s *Service) eligibleDriver(ctx context.Context, driverID string) (*usersdomain.User, error) {
	driver, err := s.users.GetByID(ctx, driverID)
	if err != nil {
		if err == usersports.ErrNotFound {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	if driver.Role != usersdomain.RoleDriver || !driver.IsActive {
		return nil, ErrDriverNotEligible
	}
	return driver, nil
}

// replayed answers a keyed mutation from the idempotency store when the same
// request was already applied.
func (s *Service) replayed(ctx context.Context, key, hash string) (*domain.Shipment, bool, error) {
	if s.idem == nil || key == "" {
		return nil, false, nil
	}
	record, err := s.idem.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		return nil, false, nil
	}
	if record.RequestHash != hash {
		return nil, false, ports.ErrIdempotencyConflict
	}
	shipment, err := s.repo.GetByID(ctx, record.ShipmentID)
	if err != nil {
		return nil, false, err
	}
	return shipment, true, nil
}

func (s *Service) remember(ctx context.Context, key, hash string, shipment *domain.Shipment) {
	if s.idem == nil || key == "" || shipment == nil {
		return
	}
	// The transition already committed; a dedupe bookkeeping failure must not
	// fail the request.
	_, _ = s.idem.Save(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: hash,
		ShipmentID:  shipment.ID,
		Status:      shipment.Status,
	})
}

var _ ports.Service = (*Service)(nil)
