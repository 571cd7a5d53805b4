package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crateful-app/crateful-backend/pkg/db/models"
	"github.com/crateful-app/crateful-backend/pkg/enums"
)

// Repository persists issued checkout sessions. payment_reference holds the
// provider's session id, which is how webhook deliveries find the row again.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.CheckoutSession) error
	FindByPaymentReference(ctx context.Context, reference string) (*models.CheckoutSession, error)
	MarkStatusByStripeID(ctx context.Context, stripeSessionID string, status enums.CheckoutSessionStatus) error
	ListPendingSince(ctx context.Context, since time.Time, limit int) ([]models.CheckoutSession, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a checkout session repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.CheckoutSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) FindByPaymentReference(ctx context.Context, reference string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	if err := r.db.WithContext(ctx).
		Where("payment_reference = ?", reference).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repository) MarkStatusByStripeID(ctx context.Context, stripeSessionID string, status enums.CheckoutSessionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("payment_reference = ? AND status = ?", stripeSessionID, enums.CheckoutSessionStatusPending).
		Update("status", status).Error
}

func (r *repository) ListPendingSince(ctx context.Context, since time.Time, limit int) ([]models.CheckoutSession, error) {
	var sessions []models.CheckoutSession
	query := r.db.WithContext(ctx).
		Where("status = ? AND created_at >= ?", enums.CheckoutSessionStatusPending, since).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
