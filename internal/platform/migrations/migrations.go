package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&shipmentRecord{},
		&historyRecord{},
		&idempotencyRecord{},
		&userRecord{},
	)
}

// Shipment schema mirrors the shipments Postgres adapter.
type shipmentRecord struct {
	ID               string     `gorm:"primaryKey;column:id;size:36"`
	TrackingNumber   string     `gorm:"column:tracking_number;uniqueIndex;size:20"`
	Status           string     `gorm:"column:status;type:varchar(32);index"`
	SenderName       string     `gorm:"column:sender_name"`
	SenderPhone      string     `gorm:"column:sender_phone"`
	SenderAddress    string     `gorm:"column:sender_address"`
	RecipientName    string     `gorm:"column:recipient_name"`
	RecipientPhone   string     `gorm:"column:recipient_phone"`
	RecipientAddress string     `gorm:"column:recipient_address"`
	RecipientLat     *float64   `gorm:"column:recipient_lat"`
	RecipientLng     *float64   `gorm:"column:recipient_lng"`
	PackageWeight    *float64   `gorm:"column:package_weight"`
	PackageSize      string     `gorm:"column:package_size;type:varchar(16)"`
	Description      string     `gorm:"column:description"`
	DeliveryCode     string     `gorm:"column:delivery_code;type:varchar(6)"`
	SignatureURL     string     `gorm:"column:signature_url"`
	PhotoURL         string     `gorm:"column:photo_url"`
	DeliveredAt      *time.Time `gorm:"column:delivered_at"`
	DriverID         *string    `gorm:"column:driver_id;size:36;index"`
	CreatedByID      string     `gorm:"column:created_by_id;size:36"`
	CreatedAt        time.Time  `gorm:"column:created_at;index"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (shipmentRecord) TableName() string { return "shipments" }

// Status ledger schema mirrors the shipments Postgres adapter.
type historyRecord struct {
	ID         string    `gorm:"primaryKey;column:id;size:36"`
	ShipmentID string    `gorm:"column:shipment_id;size:36;index:idx_history_shipment_created"`
	Status     string    `gorm:"column:status;type:varchar(32)"`
	Note       string    `gorm:"column:note"`
	Location   string    `gorm:"column:location"`
	CreatedAt  time.Time `gorm:"column:created_at;index:idx_history_shipment_created"`
}

func (historyRecord) TableName() string { return "status_history" }

// Idempotency schema mirrors the shipments Postgres idempotency store.
type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:128"`
	RequestHash string    `gorm:"column:request_hash;size:64"`
	ShipmentID  string    `gorm:"column:shipment_id;size:36;index"`
	Status      string    `gorm:"column:status;type:varchar(32)"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "idempotency_records" }

// User schema mirrors the users Postgres adapter.
type userRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:36"`
	Name      string    `gorm:"column:name"`
	Email     string    `gorm:"column:email;index"`
	Phone     string    `gorm:"column:phone"`
	Role      string    `gorm:"column:role;type:varchar(32);index"`
	IsActive  bool      `gorm:"column:is_active"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }
