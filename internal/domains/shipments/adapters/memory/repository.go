package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory shipment persistence adapter. It upholds the
// same atomicity contract as the SQL adapter by holding its lock across the
// whole read-check-write sequence of a transition.
type Repository struct {
	mu         sync.RWMutex
	shipments  map[string]*domain.Shipment
	byTracking map[string]string
	now        func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		shipments:  map[string]*domain.Shipment{},
		byTracking: map[string]string{},
		now:        time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) Create(_ context.Context, shipment *domain.Shipment) (*domain.Shipment, error) {
	if shipment == nil {
		return nil, errors.New("shipment is nil")
	}
	if len(shipment.History) == 0 {
		return nil, errors.New("shipment must carry its first history entry")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byTracking[shipment.TrackingNumber]; taken {
		return nil, ports.ErrTrackingNumberTaken
	}
	clone := cloneShipment(shipment)
	clone.CreatedAt = r.now()
	clone.UpdatedAt = clone.CreatedAt
	r.shipments[clone.ID] = clone
	r.byTracking[clone.TrackingNumber] = clone.ID
	return cloneShipment(clone), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	shipment, ok := r.shipments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneShipment(shipment), nil
}

func (r *Repository) GetByTrackingNumber(_ context.Context, trackingNumber string) (*domain.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byTracking[trackingNumber]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneShipment(r.shipments[id]), nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]*domain.Shipment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]*domain.Shipment, 0)
	for _, shipment := range r.shipments {
		if !matches(shipment, filter) {
			continue
		}
		matched = append(matched, shipment)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return []*domain.Shipment{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]*domain.Shipment, 0, end-start)
	for _, shipment := range matched[start:end] {
		out = append(out, cloneShipment(shipment))
	}
	return out, total, nil
}

func (r *Repository) ListByDriver(_ context.Context, driverID string, status domain.Status) ([]*domain.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Shipment, 0)
	for _, shipment := range r.shipments {
		if !shipment.AssignedTo(driverID) {
			continue
		}
		if status != "" && shipment.Status != status {
			continue
		}
		out = append(out, cloneShipment(shipment))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Repository) Transition(_ context.Context, id string, spec ports.TransitionSpec) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shipment, ok := r.shipments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	// Precondition re-check under the same lock that performs the write.
	if shipment.Status.Terminal() {
		return nil, domain.ErrShipmentFinalized
	}
	now := r.now()
	entry := domain.HistoryEntry{
		ID:         uuid.NewString(),
		ShipmentID: id,
		Status:     spec.Target,
		Note:       spec.Note,
		Location:   spec.Location,
		CreatedAt:  now,
	}
	shipment.History = append([]domain.HistoryEntry{entry}, shipment.History...)
	shipment.Status = spec.Target
	shipment.UpdatedAt = now
	if spec.Target == domain.StatusDelivered {
		deliveredAt := now
		shipment.DeliveredAt = &deliveredAt
		if spec.SignatureURL != "" {
			shipment.SignatureURL = spec.SignatureURL
		}
		if spec.PhotoURL != "" {
			shipment.PhotoURL = spec.PhotoURL
		}
	}
	return cloneShipment(shipment), nil
}

func (r *Repository) Update(_ context.Context, id string, fields ports.UpdateFields) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shipment, ok := r.shipments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if shipment.Status == domain.StatusDelivered {
		return nil, domain.ErrShipmentFinalized
	}
	if fields.Sender != nil {
		shipment.Sender = *fields.Sender
	}
	if fields.Recipient != nil {
		shipment.Recipient = *fields.Recipient
	}
	if fields.Package != nil {
		shipment.Package = *fields.Package
	}
	shipment.UpdatedAt = r.now()
	return cloneShipment(shipment), nil
}

func (r *Repository) AssignDriver(_ context.Context, id, driverID string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shipment, ok := r.shipments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if shipment.Status.Terminal() {
		return nil, domain.ErrShipmentFinalized
	}
	shipment.DriverID = &driverID
	shipment.UpdatedAt = r.now()
	return cloneShipment(shipment), nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	shipment, ok := r.shipments[id]
	if !ok {
		return ports.ErrNotFound
	}
	if shipment.Status == domain.StatusDelivered {
		return domain.ErrShipmentFinalized
	}
	delete(r.byTracking, shipment.TrackingNumber)
	delete(r.shipments, id)
	return nil
}

func matches(shipment *domain.Shipment, filter ports.ListFilter) bool {
	if filter.Status != "" && shipment.Status != filter.Status {
		return false
	}
	if filter.DriverID != "" && !shipment.AssignedTo(filter.DriverID) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(shipment.TrackingNumber), needle) &&
			!strings.Contains(strings.ToLower(shipment.Recipient.Name), needle) &&
			!strings.Contains(strings.ToLower(shipment.Sender.Name), needle) {
			return false
		}
	}
	return true
}

func cloneShipment(s *domain.Shipment) *domain.Shipment {
	clone := *s
	clone.History = append([]domain.HistoryEntry(nil), s.History...)
	if s.DriverID != nil {
		driverID := *s.DriverID
		clone.DriverID = &driverID
	}
	if s.DeliveredAt != nil {
		deliveredAt := *s.DeliveredAt
		clone.DeliveredAt = &deliveredAt
	}
	if s.Recipient.Lat != nil {
		lat := *s.Recipient.Lat
		clone.Recipient.Lat = &lat
	}
	if s.Recipient.Lng != nil {
		lng := *s.Recipient.Lng
		clone.Recipient.Lng = &lng
	}
	if s.Package.Weight != nil {
		weight := *s.Package.Weight
		clone.Package.Weight = &weight
	}
	return &clone
}
