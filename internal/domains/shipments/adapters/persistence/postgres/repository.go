package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	"github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists shipments and their status ledger in PostgreSQL using
// GORM. Every status mutation runs in one transaction that locks the
// shipment row, re-checks the non-terminal precondition, appends the ledger
// row, and updates the shipment — so status and ledger head are never
// observably inconsistent.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// shipmentRecord maps the shipment aggregate to a relational table.
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

// historyRecord maps one status ledger entry.
type historyRecord struct {
	ID         string    `gorm:"primaryKey;column:id;size:36"`
	ShipmentID string    `gorm:"column:shipment_id;size:36;index:idx_history_shipment_created"`
	Status     string    `gorm:"column:status;type:varchar(32)"`
	Note       string    `gorm:"column:note"`
	Location   string    `gorm:"column:location"`
	CreatedAt  time.Time `gorm:"column:created_at;index:idx_history_shipment_created"`
}

func (historyRecord) TableName() string { return "status_history" }

// Create persists the shipment row plus its initial history entries in one
// transaction. A tracking number collision maps to ErrTrackingNumberTaken.
func (r *Repository) Create(ctx context.Context, shipment *domain.Shipment) (*domain.Shipment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, errors.New("shipment is nil")
	}
	if len(shipment.History) == 0 {
		return nil, errors.New("shipment must carry its first history entry")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&shipmentRecord{}).
			Where("tracking_number = ?", shipment.TrackingNumber).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ports.ErrTrackingNumberTaken
		}
		record := toRecord(shipment)
		now := r.now()
		record.CreatedAt = now
		record.UpdatedAt = now
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ports.ErrTrackingNumberTaken
			}
			return err
		}
		for i := range shipment.History {
			entry := toHistoryRecord(shipment.History[i])
			if entry.CreatedAt.IsZero() {
				entry.CreatedAt = now
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, shipment.ID)
}

// GetByID fetches a shipment with its full history, newest first.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Shipment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record shipmentRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	history, err := r.loadHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return record.toDomain(history), nil
}

// GetByTrackingNumber resolves the public tracking lookup.
func (r *Repository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record shipmentRecord
	if err := r.db.WithContext(ctx).First(&record, "tracking_number = ?", trackingNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	history, err := r.loadHistory(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return record.toDomain(history), nil
}

// List returns a filtered, paginated page of shipments with their newest
// history entry attached.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Shipment, int64, error) {
	if err := r.ensureDB(); err != nil {
		return nil, 0, err
	}
	query := r.db.WithContext(ctx).Model(&shipmentRecord{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.DriverID != "" {
		query = query.Where("driver_id = ?", filter.DriverID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"tracking_number ILIKE ? OR recipient_name ILIKE ? OR sender_name ILIKE ?",
			pattern, pattern, pattern,
		)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var records []shipmentRecord
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}
	shipments, err := r.withNewestHistory(ctx, records)
	if err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

// ListByDriver returns the shipments assigned to one driver.
func (r *Repository) ListByDriver(ctx context.Context, driverID string, status domain.Status) ([]*domain.Shipment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Where("driver_id = ?", driverID)
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	var records []shipmentRecord
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return r.withNewestHistory(ctx, records)
}

// Transition applies one status change atomically: row lock, terminal
// re-check, ledger append, shipment update.
func (r *Repository) Transition(ctx context.Context, id string, spec ports.TransitionSpec) (*domain.Shipment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record shipmentRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		if domain.Status(record.Status).Terminal() {
			return domain.ErrShipmentFinalized
		}
		now := r.now()
		entry := historyRecord{
			ID:         uuid.NewString(),
			ShipmentID: id,
			Status:     string(spec.Target),
			Note:       spec.Note,
			Location:   spec.Location,
			CreatedAt:  now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"status":     string(spec.Target),
			"updated_at": now,
		}
		if spec.Target == domain.StatusDelivered {
			updates["delivered_at"] = now
			if spec.SignatureURL != "" {
				updates["signature_url"] = spec.SignatureURL
			}
			if spec.PhotoURL != "" {
				updates["photo_url"] = spec.PhotoURL
			}
		}
		return tx.Model(&shipmentRecord{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Update applies descriptive field changes; rejected once delivered.
func (r *Repository) Update(ctx context.Context, id string, fields ports.UpdateFields) (*domain.Shipment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record shipmentRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		if domain.Status(record.Status) == domain.StatusDelivered {
			return domain.ErrShipmentFinalized
		}
		updates := map[string]any{"updated_at": r.now()}
		if fields.Sender != nil {
			updates["sender_name"] = fields.Sender.Name
			updates["sender_phone"] = fields.Sender.Phone
			updates["sender_address"] = fields.Sender.Address
		}
		if fields.Recipient != nil {
			updates["recipient_name"] = fields.Recipient.Name
			updates["recipient_phone"] = fields.Recipient.Phone
			updates["recipient_address"] = fields.Recipient.Address
			updates["recipient_lat"] = fields.Recipient.Lat
			updates["recipient_lng"] = fields.Recipient.Lng
		}
		if fields.Package != nil {
			updates["package_weight"] = fields.Package.Weight
			updates["package_size"] = string(fields.Package.Size)
			updates["description"] = fields.Package.Description
		}
		return tx.Model(&shipmentRecord{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// AssignDriver writes the driver reference; rejected on finalized shipments.
func (r *Repository) AssignDriver(ctx context.Context, id, driverID string) (*domain.Shipment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record shipmentRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		if domain.Status(record.Status).Terminal() {
			return domain.ErrShipmentFinalized
		}
		return tx.Model(&shipmentRecord{}).Where("id = ?", id).Updates(map[string]any{
			"driver_id":  driverID,
			"updated_at": r.now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a shipment and its ledger; delivered shipments are kept.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record shipmentRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		if domain.Status(record.Status) == domain.StatusDelivered {
			return domain.ErrShipmentFinalized
		}
		if err := tx.Delete(&historyRecord{}, "shipment_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&shipmentRecord{}, "id = ?", id).Error
	})
}

func (r *Repository) loadHistory(ctx context.Context, shipmentID string) ([]domain.HistoryEntry, error) {
	var records []historyRecord
	if err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	history := make([]domain.HistoryEntry, 0, len(records))
	for i := range records {
		history = append(history, records[i].toDomain())
	}
	return history, nil
}

// withNewestHistory attaches only the head ledger entry to each shipment,
// which is all list views render.
func (r *Repository) withNewestHistory(ctx context.Context, records []shipmentRecord) ([]*domain.Shipment, error) {
	if len(records) == 0 {
		return []*domain.Shipment{}, nil
	}
	ids := make([]string, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].ID)
	}
	var entries []historyRecord
	if err := r.db.WithContext(ctx).
		Where("shipment_id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	newest := make(map[string]historyRecord, len(records))
	for i := range entries {
		if _, seen := newest[entries[i].ShipmentID]; !seen {
			newest[entries[i].ShipmentID] = entries[i]
		}
	}
	shipments := make([]*domain.Shipment, 0, len(records))
	for i := range records {
		var history []domain.HistoryEntry
		if entry, ok := newest[records[i].ID]; ok {
			history = []domain.HistoryEntry{entry.toDomain()}
		}
		shipments = append(shipments, records[i].toDomain(history))
	}
	return shipments, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres shipment repository not configured")
	}
	return nil
}

func toRecord(shipment *domain.Shipment) shipmentRecord {
	return shipmentRecord{
		ID:               shipment.ID,
		TrackingNumber:   shipment.TrackingNumber,
		Status:           string(shipment.Status),
		SenderName:       shipment.Sender.Name,
		SenderPhone:      shipment.Sender.Phone,
		SenderAddress:    shipment.Sender.Address,
		RecipientName:    shipment.Recipient.Name,
		RecipientPhone:   shipment.Recipient.Phone,
		RecipientAddress: shipment.Recipient.Address,
		RecipientLat:     shipment.Recipient.Lat,
		RecipientLng:     shipment.Recipient.Lng,
		PackageWeight:    shipment.Package.Weight,
		PackageSize:      string(shipment.Package.Size),
		Description:      shipment.Package.Description,
		DeliveryCode:     shipment.DeliveryCode,
		SignatureURL:     shipment.SignatureURL,
		PhotoURL:         shipment.PhotoURL,
		DeliveredAt:      shipment.DeliveredAt,
		DriverID:         shipment.DriverID,
		CreatedByID:      shipment.CreatedByID,
	}
}

func toHistoryRecord(entry domain.HistoryEntry) historyRecord {
	return historyRecord{
		ID:         entry.ID,
		ShipmentID: entry.ShipmentID,
		Status:     string(entry.Status),
		Note:       entry.Note,
		Location:   entry.Location,
		CreatedAt:  entry.CreatedAt,
	}
}

func (r shipmentRecord) toDomain(history []domain.HistoryEntry) *domain.Shipment {
	return &domain.Shipment{
		ID:             r.ID,
		TrackingNumber: r.TrackingNumber,
		Status:         domain.Status(r.Status),
		Sender: domain.Party{
			Name:    r.SenderName,
			Phone:   r.SenderPhone,
			Address: r.SenderAddress,
		},
		Recipient: domain.Recipient{
			Party: domain.Party{
				Name:    r.RecipientName,
				Phone:   r.RecipientPhone,
				Address: r.RecipientAddress,
			},
			Lat: r.RecipientLat,
			Lng: r.RecipientLng,
		},
		Package: domain.PackageInfo{
			Weight:      r.PackageWeight,
			Size:        domain.PackageSize(r.PackageSize),
			Description: r.Description,
		},
		DeliveryCode: r.DeliveryCode,
		SignatureURL: r.SignatureURL,
		PhotoURL:     r.PhotoURL,
		DeliveredAt:  r.DeliveredAt,
		DriverID:     r.DriverID,
		CreatedByID:  r.CreatedByID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		History:      history,
	}
}

func (r historyRecord) toDomain() domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:         r.ID,
		ShipmentID: r.ShipmentID,
		Status:     domain.Status(r.Status),
		Note:       r.Note,
		Location:   r.Location,
		CreatedAt:  r.CreatedAt,
	}
}
