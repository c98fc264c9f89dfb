package domain

import "time"

// HistoryEntry is one immutable fact in a shipment's status ledger.
// Entries are append-only; the shipment's stored status always equals the
// status of its newest entry.
type HistoryEntry struct {
	ID         string
	ShipmentID string
	Status     Status
	Note       string
	Location   string
	CreatedAt  time.Time
}

// Default ledger notes written when the caller supplies none.
const (
	NoteShipmentCreated = "Shipment created"
	NoteDelivered       = "Package delivered successfully"
)
