package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/crateful-app/crateful-backend/pkg/enums"
)

// Entitlement is the canonical proof that a buyer owns a product box. At most
// one active row may exist per (buyer_id, product_id); revoked rows are kept
// for audit and never deleted.
type Entitlement struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID          uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null;index"`
	ProductID        uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	CreatorID        uuid.UUID               `gorm:"column:creator_id;type:uuid;not null;index"`
	PaymentReference string                  `gorm:"column:payment_reference;not null"`
	AmountCents      int64                   `gorm:"column:amount_cents;not null"`
	PlatformFeeCents int64                   `gorm:"column:platform_fee_cents;not null"`
	Currency         string                  `gorm:"column:currency;not null;default:'usd'"`
	Status           enums.EntitlementStatus `gorm:"column:status;type:entitlement_status;not null;default:'active'"`
	GrantedAt        time.Time               `gorm:"column:granted_at;not null"`
	RevokedAt        *time.Time              `gorm:"column:revoked_at"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
