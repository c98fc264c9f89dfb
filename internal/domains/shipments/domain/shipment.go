package domain

import (
	"errors"
	"strings"
	"time"
)

// Status enumerates shipment progression.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusPickedUp       Status = "PICKED_UP"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusFailed         Status = "FAILED"
	StatusReturned       Status = "RETURNED"
)

// PackageSize enumerates the coarse parcel size classes.
type PackageSize string

const (
	SizeSmall  PackageSize = "SMALL"
	SizeMedium PackageSize = "MEDIUM"
	SizeLarge  PackageSize = "LARGE"
)

var (
	ErrInvalidStatus        = errors.New("shipment status is invalid")
	ErrShipmentFinalized    = errors.New("shipment already finalized")
	ErrDeliveryCodeMismatch = errors.New("invalid delivery code")
	ErrEmptySender          = errors.New("sender name and address are required")
	ErrEmptyRecipient       = errors.New("recipient name and address are required")
	ErrInvalidPackageSize   = errors.New("package size is invalid")
)

// Party identifies one end of a shipment.
type Party struct {
	Name    string
	Phone   string
	Address string
}

// Recipient extends Party with optional drop-off coordinates.
type Recipient struct {
	Party
	Lat *float64
	Lng *float64
}

// PackageInfo describes the parcel itself.
type PackageInfo struct {
	Weight      *float64
	Size        PackageSize
	Description string
}

// Shipment models the parcel aggregate. Status is a projection of the
// newest history entry; both are only ever written together.
type Shipment struct {
	ID             string
	TrackingNumber string
	Status         Status
	Sender         Party
	Recipient      Recipient
	Package        PackageInfo
	DeliveryCode   string
	SignatureURL   string
	PhotoURL       string
	DeliveredAt    *time.Time
	DriverID       *string
	CreatedByID    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	// History is ordered newest first.
	History []HistoryEntry
}

// Validate enforces invariants on the aggregate.
func (s *Shipment) Validate() error {
	if strings.TrimSpace(s.Sender.Name) == "" || strings.TrimSpace(s.Sender.Address) == "" {
		return ErrEmptySender
	}
	if strings.TrimSpace(s.Recipient.Name) == "" || strings.TrimSpace(s.Recipient.Address) == "" {
		return ErrEmptyRecipient
	}
	if !s.Status.Valid() {
		return ErrInvalidStatus
	}
	if s.Package.Size != "" && !s.Package.Size.Valid() {
		return ErrInvalidPackageSize
	}
	return nil
}

// CanTransitionTo reports whether the shipment may move to target.
// Any valid status is reachable while the shipment is not finalized.
func (s *Shipment) CanTransitionTo(target Status) error {
	if !target.Valid() {
		return ErrInvalidStatus
	}
	if s.Status.Terminal() {
		return ErrShipmentFinalized
	}
	return nil
}

// VerifyDeliveryCode compares the presented code against the one assigned at
// creation. Codes are strings so leading zeros survive the comparison.
func (s *Shipment) VerifyDeliveryCode(code string) error {
	if s.DeliveryCode == "" {
		return nil
	}
	if s.DeliveryCode != code {
		return ErrDeliveryCodeMismatch
	}
	return nil
}

// AssignedTo reports whether the shipment is assigned to the given driver.
func (s *Shipment) AssignedTo(driverID string) bool {
	return s.DriverID != nil && *s.DriverID == driverID
}

// Valid reports whether the status is a known state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPickedUp, StatusInTransit, StatusOutForDelivery,
		StatusDelivered, StatusFailed, StatusReturned:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusFailed, StatusReturned:
		return true
	default:
		return false
	}
}

// Valid reports whether the size is a known class.
func (p PackageSize) Valid() bool {
	switch p {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	default:
		return false
	}
}
