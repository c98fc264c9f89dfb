package mapper

import (
	"time"

	shipmentsdomain "github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
)

// Party is the transport-layer shape of a sender.
type Party struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address" binding:"required"`
}

// Recipient extends Party with optional delivery coordinates.
type Recipient struct {
	Name    string   `json:"name" binding:"required"`
	Phone   string   `json:"phone"`
	Address string   `json:"address" binding:"required"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// PackageInfo is the transport-layer shape of the parcel description.
type PackageInfo struct {
	Weight      *float64 `json:"weight,omitempty"`
	Size        string   `json:"size" binding:"required"`
	Description string   `json:"description,omitempty"`
}

// CreateShipmentRequest is the POST /shipments body.
type CreateShipmentRequest struct {
	Sender               Party       `json:"sender" binding:"required"`
	Recipient            Recipient   `json:"recipient" binding:"required"`
	Package              PackageInfo `json:"package" binding:"required"`
	DriverID             *string     `json:"driverId,omitempty"`
	GenerateDeliveryCode bool        `json:"generateDeliveryCode,omitempty"`
}

// UpdateShipmentRequest is the PUT /shipments/:id body. Absent sections are
// left unchanged.
type UpdateShipmentRequest struct {
	Sender    *Party       `json:"sender,omitempty"`
	Recipient *Recipient   `json:"recipient,omitempty"`
	Package   *PackageInfo `json:"package,omitempty"`
}

// UpdateStatusRequest is the PUT /shipments/:id/status body.
type UpdateStatusRequest struct {
	Status   string `json:"status" binding:"required"`
	Note     string `json:"note,omitempty"`
	Location string `json:"location,omitempty"`
}

// DeliverRequest is the POST /shipments/:id/deliver body.
type DeliverRequest struct {
	DeliveryCode string `json:"deliveryCode,omitempty"`
	SignatureURL string `json:"signatureUrl,omitempty"`
	PhotoURL     string `json:"photoUrl,omitempty"`
	Note         string `json:"note,omitempty"`
}

// AssignDriverRequest is the PUT /shipments/:id/assign body.
type AssignDriverRequest struct {
	DriverID string `json:"driverId" binding:"required"`
}

// HistoryEntry is the transport representation of one ledger fact.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Shipment is the full transport representation returned to authenticated
// callers.
type Shipment struct {
	ID             string         `json:"id"`
	TrackingNumber string         `json:"trackingNumber"`
	Status         string         `json:"status"`
	Sender         Party          `json:"sender"`
	Recipient      Recipient      `json:"recipient"`
	Package        PackageInfo    `json:"package"`
	DeliveryCode   string         `json:"deliveryCode,omitempty"`
	SignatureURL   string         `json:"signatureUrl,omitempty"`
	PhotoURL       string         `json:"photoUrl,omitempty"`
	DeliveredAt    *time.Time     `json:"deliveredAt,omitempty"`
	DriverID       *string        `json:"driverId,omitempty"`
	CreatedByID    string         `json:"createdById"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	History        []HistoryEntry `json:"history"`
}

// PublicShipment is the reduced view served on the unauthenticated tracking
// endpoint. It omits the delivery code, contact details, and internal ids.
type PublicShipment struct {
	TrackingNumber string         `json:"trackingNumber"`
	Status         string         `json:"status"`
	RecipientName  string         `json:"recipientName"`
	DeliveredAt    *time.Time     `json:"deliveredAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	History        []HistoryEntry `json:"history"`
}

// ToCreateInput converts the creation request into the service input.
func ToCreateInput(req CreateShipmentRequest) ports.CreateShipmentInput {
	return ports.CreateShipmentInput{
		Sender:               toDomainParty(req.Sender),
		Recipient:            toDomainRecipient(req.Recipient),
		Package:              toDomainPackage(req.Package),
		DriverID:             req.DriverID,
		GenerateDeliveryCode: req.GenerateDeliveryCode,
	}
}

// ToUpdateFields converts the field-update request into the repository patch.
func ToUpdateFields(req UpdateShipmentRequest) ports.UpdateFields {
	fields := ports.UpdateFields{}
	if req.Sender != nil {
		sender := toDomainParty(*req.Sender)
		fields.Sender = &sender
	}
	if req.Recipient != nil {
		recipient := toDomainRecipient(*req.Recipient)
		fields.Recipient = &recipient
	}
	if req.Package != nil {
		pkg := toDomainPackage(*req.Package)
		fields.Package = &pkg
	}
	return fields
}

// ToUpdateStatusInput converts the transition request into the service input.
func ToUpdateStatusInput(req UpdateStatusRequest, idempotencyKey string) ports.UpdateStatusInput {
	return ports.UpdateStatusInput{
		Status:         shipmentsdomain.Status(req.Status),
		Note:           req.Note,
		Location:       req.Location,
		IdempotencyKey: idempotencyKey,
	}
}

// ToDeliverInput converts the delivery request into the service input.
func ToDeliverInput(req DeliverRequest, idempotencyKey string) ports.DeliverInput {
	return ports.DeliverInput{
		DeliveryCode:   req.DeliveryCode,
		SignatureURL:   req.SignatureURL,
		PhotoURL:       req.PhotoURL,
		Note:           req.Note,
		IdempotencyKey: idempotencyKey,
	}
}

// FromDomainShipment converts a domain shipment to the transport shape.
func FromDomainShipment(s *shipmentsdomain.Shipment) Shipment {
	if s == nil {
		return Shipment{}
	}
	return Shipment{
		ID:             s.ID,
		TrackingNumber: s.TrackingNumber,
		Status:         string(s.Status),
		Sender:         fromDomainParty(s.Sender),
		Recipient:      fromDomainRecipient(s.Recipient),
		Package:        fromDomainPackage(s.Package),
		DeliveryCode:   s.DeliveryCode,
		SignatureURL:   s.SignatureURL,
		PhotoURL:       s.PhotoURL,
		DeliveredAt:    s.DeliveredAt,
		DriverID:       s.DriverID,
		CreatedByID:    s.CreatedByID,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		History:        fromDomainHistory(s.History),
	}
}

// FromDomainShipments converts a result page.
func FromDomainShipments(shipments []*shipmentsdomain.Shipment) []Shipment {
	out := make([]Shipment, 0, len(shipments))
	for _, s := range shipments {
		out = append(out, FromDomainShipment(s))
	}
	return out
}

// FromDomainShipmentPublic converts a domain shipment to the public tracking
// view.
func FromDomainShipmentPublic(s *shipmentsdomain.Shipment) PublicShipment {
	if s == nil {
		return PublicShipment{}
	}
	return PublicShipment{
		TrackingNumber: s.TrackingNumber,
		Status:         string(s.Status),
		RecipientName:  s.Recipient.Name,
		DeliveredAt:    s.DeliveredAt,
		CreatedAt:      s.CreatedAt,
		History:        fromDomainHistory(s.History),
	}
}

func fromDomainHistory(entries []shipmentsdomain.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:        e.ID,
			Status:    string(e.Status),
			Note:      e.Note,
			Location:  e.Location,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func toDomainParty(p Party) shipmentsdomain.Party {
	return shipmentsdomain.Party{
		Name:    p.Name,
		Phone:   p.Phone,
		Address: p.Address,
	}
}

func fromDomainParty(p shipmentsdomain.Party) Party {
	return Party{
		Name:    p.Name,
		Phone:   p.Phone,
		Address: p.Address,
	}
}

func toDomainRecipient(r Recipient) shipmentsdomain.Recipient {
	return shipmentsdomain.Recipient{
		Party: shipmentsdomain.Party{
			Name:    r.Name,
			Phone:   r.Phone,
			Address: r.Address,
		},
		Lat: r.Lat,
		Lng: r.Lng,
	}
}

func fromDomainRecipient(r shipmentsdomain.Recipient) Recipient {
	return Recipient{
		Name:    r.Name,
		Phone:   r.Phone,
		Address: r.Address,
		Lat:     r.Lat,
		Lng:     r.Lng,
	}
}

func toDomainPackage(p PackageInfo) shipmentsdomain.PackageInfo {
	return shipmentsdomain.PackageInfo{
		Weight:      p.Weight,
		Size:        shipmentsdomain.PackageSize(p.Size),
		Description: p.Description,
	}
}

func fromDomainPackage(p shipmentsdomain.PackageInfo) PackageInfo {
	return PackageInfo{
		Weight:      p.Weight,
		Size:        string(p.Size),
		Description: p.Description,
	}
}
