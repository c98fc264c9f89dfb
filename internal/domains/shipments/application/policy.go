package application

import (
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
)

// CanTransition centralizes every transition permission rule. Admins and
// dispatchers may transition any shipment; drivers only shipments assigned
// to them. Whether the transition itself is legal (terminal guard) is the
// state machine's call, not a permission question.
func CanTransition(actor ports.Actor, shipment *domain.Shipment, _ domain.Status) bool {
	switch actor.Role {
	case usersdomain.RoleAdmin, usersdomain.RoleDispatcher:
		return true
	case usersdomain.RoleDriver:
		return shipment.AssignedTo(actor.ID)
	default:
		return false
	}
}
