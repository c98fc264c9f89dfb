package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
)

// normalizedMutation is the canonical form of a mutating request, hashed to
// detect idempotency-key reuse with a different payload.
type normalizedMutation struct {
	ShipmentID   string `json:"shipmentId"`
	Kind         string `json:"kind"`
	Status       string `json:"status,omitempty"`
	Note         string `json:"note,omitempty"`
	Location     string `json:"location,omitempty"`
	DeliveryCode string `json:"deliveryCode,omitempty"`
	SignatureURL string `json:"signatureUrl,omitempty"`
	PhotoURL     string `json:"photoUrl,omitempty"`
}

func fingerprintStatusUpdate(shipmentID string, input ports.UpdateStatusInput) (string, error) {
	return fingerprint(normalizedMutation{
		ShipmentID: shipmentID,
		Kind:       "status",
		Status:     string(input.Status),
		Note:       input.Note,
		Location:   input.Location,
	})
}

func fingerprintDeliver(shipmentID string, input ports.DeliverInput) (string, error) {
	return fingerprint(normalizedMutation{
		ShipmentID:   shipmentID,
		Kind:         "deliver",
		Note:         input.Note,
		DeliveryCode: input.DeliveryCode,
		SignatureURL: input.SignatureURL,
		PhotoURL:     input.PhotoURL,
	})
}

func fingerprint(normalized normalizedMutation) (string, error) {
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
