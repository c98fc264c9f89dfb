package application

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
)

func TestCanTransition(t *testing.T) {
	assignedDriver := "driver-1"
	assigned := &domain.Shipment{ID: "s1", Status: domain.StatusPending, DriverID: &assignedDriver}
	unassigned := &domain.Shipment{ID: "s2", Status: domain.StatusPending}

	tests := []struct {
		name     string
		actor    ports.Actor
		shipment *domain.Shipment
		want     bool
	}{
		{"admin any shipment", ports.Actor{ID: "a", Role: usersdomain.RoleAdmin}, unassigned, true},
		{"dispatcher any shipment", ports.Actor{ID: "d", Role: usersdomain.RoleDispatcher}, unassigned, true},
		{"driver own shipment", ports.Actor{ID: "driver-1", Role: usersdomain.RoleDriver}, assigned, true},
		{"driver foreign shipment", ports.Actor{ID: "driver-2", Role: usersdomain.RoleDriver}, assigned, false},
		{"driver unassigned shipment", ports.Actor{ID: "driver-1", Role: usersdomain.RoleDriver}, unassigned, false},
		{"unknown role", ports.Actor{ID: "x", Role: "AUDITOR"}, assigned, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CanTransition(tc.actor, tc.shipment, domain.StatusInTransit))
		})
	}
}
