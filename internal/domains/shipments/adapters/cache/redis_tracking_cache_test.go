package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	shipmentsmemory "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/memory"
	shipmentsapp "github.com/parceltrack/parcel-api-server/internal/domains/shipments/application"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
	usersmemory "github.com/parceltrack/parcel-api-server/internal/domains/users/adapters/memory"
	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
)

// countingService counts tracking lookups that reach the inner service.
type countingService struct {
	ports.Service
	trackCalls int
}

func (c *countingService) TrackByNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	c.trackCalls++
	return c.Service.TrackByNumber(ctx, trackingNumber)
}

func newCachedStack(t *testing.T) (*TrackingCache, *countingService, ports.Service) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := shipmentsapp.NewService(shipmentsmemory.NewRepository(), usersmemory.NewRepository())
	counting := &countingService{Service: inner}
	return NewTrackingCache(counting, client, time.Minute), counting, inner
}

func createShipment(t *testing.T, svc ports.Service) *domain.Shipment {
	t.Helper()
	shipment, err := svc.Create(context.Background(), ports.CreateShipmentInput{
		Sender: domain.Party{Name: "Acme", Address: "1 Depot Rd"},
		Recipient: domain.Recipient{
			Party: domain.Party{Name: "Jamie", Address: "42 Elm St"},
		},
		Package: domain.PackageInfo{Size: domain.SizeSmall},
	}, "admin-1")
	require.NoError(t, err)
	return shipment
}

func TestTrackByNumber_CachesLookups(t *testing.T) {
	cached, counting, inner := newCachedStack(t)
	shipment := createShipment(t, inner)

	first, err := cached.TrackByNumber(context.Background(), shipment.TrackingNumber)
	require.NoError(t, err)
	require.Equal(t, shipment.ID, first.ID)
	require.Equal(t, 1, counting.trackCalls)

	second, err := cached.TrackByNumber(context.Background(), shipment.TrackingNumber)
	require.NoError(t, err)
	require.Equal(t, shipment.ID, second.ID)
	require.Equal(t, shipment.Status, second.Status)
	require.Equal(t, 1, counting.trackCalls, "second lookup must be served from the cache")
}

func TestTrackByNumber_MissIsNotCached(t *testing.T) {
	cached, counting, _ := newCachedStack(t)

	_, err := cached.TrackByNumber(context.Background(), "PKG-20250309-ZZZZZ")
	require.ErrorIs(t, err, ports.ErrNotFound)
	_, err = cached.TrackByNumber(context.Background(), "PKG-20250309-ZZZZZ")
	require.ErrorIs(t, err, ports.ErrNotFound)
	require.Equal(t, 2, counting.trackCalls)
}

func TestMutations_InvalidateCachedEntry(t *testing.T) {
	cached, counting, inner := newCachedStack(t)
	shipment := createShipment(t, inner)
	admin := ports.Actor{ID: "admin-1", Role: usersdomain.RoleAdmin}

	_, err := cached.TrackByNumber(context.Background(), shipment.TrackingNumber)
	require.NoError(t, err)
	require.Equal(t, 1, counting.trackCalls)

	_, err = cached.UpdateStatus(context.Background(), shipment.ID, ports.UpdateStatusInput{Status: domain.StatusInTransit}, admin)
	require.NoError(t, err)

	// The stale entry is gone; the lookup reads through and sees the new status.
	fresh, err := cached.TrackByNumber(context.Background(), shipment.TrackingNumber)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInTransit, fresh.Status)
	require.Equal(t, 2, counting.trackCalls)
}

func TestTrackByNumber_RedisDownFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := shipmentsapp.NewService(shipmentsmemory.NewRepository(), usersmemory.NewRepository())
	counting := &countingService{Service: inner}
	cached := NewTrackingCache(counting, client, time.Minute)
	shipment := createShipment(t, inner)

	mr.Close()

	first, err := cached.TrackByNumber(context.Background(), shipment.TrackingNumber)
	require.NoError(t, err)
	require.Equal(t, shipment.ID, first.ID)
	require.Equal(t, 1, counting.trackCalls)
}
