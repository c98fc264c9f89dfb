package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
)

// TrackingCache decorates the shipments service with a Redis-backed cache for
// the public track-by-number lookup. Mutating operations invalidate the
// cached entry so callers never observe a status older than the TTL allows.
type TrackingCache struct {
	inner  ports.Service
	client *redis.Client
	ttl    time.Duration
}

// NewTrackingCache wires the cache decorator. A non-positive ttl falls back
// to one minute.
func NewTrackingCache(inner ports.Service, client *redis.Client, ttl time.Duration) *TrackingCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TrackingCache{inner: inner, client: client, ttl: ttl}
}

func trackingKey(trackingNumber string) string {
	return fmt.Sprintf("parceltrack:tracking:%s", trackingNumber)
}

// TrackByNumber serves the lookup from Redis when possible. Cache failures
// fall through to the inner service so Redis never takes the endpoint down.
func (c *TrackingCache) TrackByNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	if cached := c.lookup(ctx, trackingNumber); cached != nil {
		return cached, nil
	}
	shipment, err := c.inner.TrackByNumber(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	c.store(ctx, shipment)
	return shipment, nil
}

func (c *TrackingCache) Create(ctx context.Context, input ports.CreateShipmentInput, creatorID string) (*domain.Shipment, error) {
	return c.inner.Create(ctx, input, creatorID)
}

func (c *TrackingCache) GetByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return c.inner.GetByID(ctx, id)
}

func (c *TrackingCache) List(ctx context.Context, filter ports.ListFilter, actor ports.Actor) ([]*domain.Shipment, int64, error) {
	return c.inner.List(ctx, filter, actor)
}

func (c *TrackingCache) DriverShipments(ctx context.Context, driverID string, status domain.Status) ([]*domain.Shipment, error) {
	return c.inner.DriverShipments(ctx, driverID, status)
}

func (c *TrackingCache) Update(ctx context.Context, id string, fields ports.UpdateFields) (*domain.Shipment, error) {
	shipment, err := c.inner.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, shipment.TrackingNumber)
	return shipment, nil
}

func (c *TrackingCache) UpdateStatus(ctx context.Context, id string, input ports.UpdateStatusInput, actor ports.Actor) (*domain.Shipment, error) {
	shipment, err := c.inner.UpdateStatus(ctx, id, input, actor)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, shipment.TrackingNumber)
	return shipment, nil
}

func (c *TrackingCache) Deliver(ctx context.Context, id string, input ports.DeliverInput, actor ports.Actor) (*domain.Shipment, error) {
	shipment, err := c.inner.Deliver(ctx, id, input, actor)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, shipment.TrackingNumber)
	return shipment, nil
}

func (c *TrackingCache) AssignDriver(ctx context.Context, id, driverID string) (*domain.Shipment, error) {
	shipment, err := c.inner.AssignDriver(ctx, id, driverID)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, shipment.TrackingNumber)
	return shipment, nil
}

func (c *TrackingCache) Delete(ctx context.Context, id string) error {
	// Resolve the tracking number first so the cached entry can be dropped.
	if shipment, err := c.inner.GetByID(ctx, id); err == nil {
		defer c.invalidate(ctx, shipment.TrackingNumber)
	}
	return c.inner.Delete(ctx, id)
}

func (c *TrackingCache) lookup(ctx context.Context, trackingNumber string) *domain.Shipment {
	if c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, trackingKey(trackingNumber)).Bytes()
	if err != nil {
		return nil
	}
	var shipment domain.Shipment
	if err := json.Unmarshal(data, &shipment); err != nil {
		return nil
	}
	return &shipment
}

func (c *TrackingCache) store(ctx context.Context, shipment *domain.Shipment) {
	if c.client == nil || shipment == nil {
		return
	}
	data, err := json.Marshal(shipment)
	if err != nil {
		return
	}
	c.client.Set(ctx, trackingKey(shipment.TrackingNumber), data, c.ttl)
}

func (c *TrackingCache) invalidate(ctx context.Context, trackingNumber string) {
	if c.client == nil || trackingNumber == "" {
		return
	}
	c.client.Del(ctx, trackingKey(trackingNumber))
}

var _ ports.Service = (*TrackingCache)(nil)
