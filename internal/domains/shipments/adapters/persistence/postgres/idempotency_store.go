package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore persists replay-deduplication records in PostgreSQL.
type IdempotencyStore struct {
	db *gorm.DB
}

func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// idempotencyRecord maps a remembered mutation.
type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:128"`
	RequestHash string    `gorm:"column:request_hash;size:64"`
	ShipmentID  string    `gorm:"column:shipment_id;size:36;index"`
	Status      string    `gorm:"column:status;type:varchar(32)"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "idempotency_records" }

// Get returns the stored record for the provided key, or nil when absent.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record idempotencyRecord
	if err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record.toPort(), nil
}

// Save persists the record or returns the existing record if it matches.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var saved *ports.IdempotencyRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing idempotencyRecord
		err := tx.First(&existing, "key = ?", record.Key).Error
		if err == nil {
			if existing.RequestHash != record.RequestHash || existing.ShipmentID != record.ShipmentID {
				saved = existing.toPort()
				return ports.ErrIdempotencyConflict
			}
			saved = existing.toPort()
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row := idempotencyRecord{
			Key:         record.Key,
			RequestHash: record.RequestHash,
			ShipmentID:  record.ShipmentID,
			Status:      string(record.Status),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		saved = row.toPort()
		return nil
	})
	if err != nil {
		return saved, err
	}
	return saved, nil
}

func (s *IdempotencyStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres idempotency store not configured")
	}
	return nil
}

func (r idempotencyRecord) toPort() *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:         r.Key,
		RequestHash: r.RequestHash,
		ShipmentID:  r.ShipmentID,
		Status:      domain.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
