package entitlements

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crateful-app/crateful-backend/pkg/db/models"
	"github.com/crateful-app/crateful-backend/pkg/enums"
	"github.com/crateful-app/crateful-backend/pkg/pagination"
)

// Repository handles entitlement persistence including the durable event
// guard and the fan-out read shapes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ClaimEvent(ctx context.Context, eventID, paymentReference string, at time.Time) (bool, error)
	FindActive(ctx context.Context, buyerID, productID uuid.UUID) (*models.Entitlement, error)
	FindLatest(ctx context.Context, buyerID, productID uuid.UUID) (*models.Entitlement, error)
	CreateEntitlement(ctx context.Context, ent *models.Entitlement) error
	MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateLibraryItem(ctx context.Context, item *models.BuyerLibraryItem) error
	MarkLibraryItemRevoked(ctx context.Context, buyerID uuid.UUID, paymentReference string, at time.Time) error
	CreateSaleRecord(ctx context.Context, record *models.CreatorSaleRecord) error
	MarkSaleRefunded(ctx context.Context, creatorID uuid.UUID, paymentReference string, at time.Time) error
	ListLibrary(ctx context.Context, buyerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.BuyerLibraryItem, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an entitlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ClaimEvent inserts the processed-event row conditionally. A false return
// means another delivery already claimed the event id.
func (r *repository) ClaimEvent(ctx context.Context, eventID, paymentReference string, at time.Time) (bool, error) {
	row := models.ProcessedEvent{
		EventID:          eventID,
		PaymentReference: paymentReference,
		HandledAt:        at,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindActive(ctx context.Context, buyerID, productID uuid.UUID) (*models.Entitlement, error) {
	var ent models.Entitlement
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ? AND status = ?", buyerID, productID, enums.EntitlementStatusActive).
		First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ent, nil
}

func (r *repository) FindLatest(ctx context.Context, buyerID, productID uuid.UUID) (*models.Entitlement, error) {
	var ent models.Entitlement
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Order("granted_at DESC").
		First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ent, nil
}

func (r *repository) CreateEntitlement(ctx context.Context, ent *models.Entitlement) error {
	return r.db.WithContext(ctx).Create(ent).Error
}

func (r *repository) MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Entitlement{}).
		Where("id = ? AND status = ?", id, enums.EntitlementStatusActive).
		Updates(map[string]any{
			"status":     enums.EntitlementStatusRevoked,
			"revoked_at": at,
		}).Error
}

func (r *repository) CreateLibraryItem(ctx context.Context, item *models.BuyerLibraryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) MarkLibraryItemRevoked(ctx context.Context, buyerID uuid.UUID, paymentReference string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.BuyerLibraryItem{}).
		Where("buyer_id = ? AND payment_reference = ? AND NOT revoked", buyerID, paymentReference).
		Updates(map[string]any{
			"revoked":    true,
			"revoked_at": at,
		}).Error
}

func (r *repository) CreateSaleRecord(ctx context.Context, record *models.CreatorSaleRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) MarkSaleRefunded(ctx context.Context, creatorID uuid.UUID, paymentReference string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CreatorSaleRecord{}).
		Where("creator_id = ? AND payment_reference = ? AND NOT refunded", creatorID, paymentReference).
		Updates(map[string]any{
			"refunded":    true,
			"refunded_at": at,
		}).Error
}

func (r *repository) ListLibrary(ctx context.Context, buyerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.BuyerLibraryItem, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).
		Model(&models.BuyerLibraryItem{}).
		Where("buyer_id = ? AND NOT revoked", buyerID)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var items []models.BuyerLibraryItem
	if err := query.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(normalized)).
		Find(&items).Error; err != nil {
		return nil, nil, err
	}

	if len(items) > normalized {
		next := items[normalized]
		items = items[:normalized]
		return items, &pagination.Cursor{
			CreatedAt: next.CreatedAt,
			ID:        next.ID,
		}, nil
	}

	return items, nil, nil
}
