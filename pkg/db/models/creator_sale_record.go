package models

import (
	"time"

	"github.com/google/uuid"
)

// CreatorSaleRecord is the creator-facing read shape of an entitlement, kept in
// sync by the fan-out write. Sales dashboards query this table only.
type CreatorSaleRecord struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID        uuid.UUID  `gorm:"column:creator_id;type:uuid;not null;index:idx_creator_sale_records_creator"`
	ProductID        uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	BuyerID          uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null"`
	PaymentReference string     `gorm:"column:payment_reference;not null"`
	AmountCents      int64      `gorm:"column:amount_cents;not null"`
	PlatformFeeCents int64      `gorm:"column:platform_fee_cents;not null"`
	NetCents         int64      `gorm:"column:net_cents;not null"`
	Currency         string     `gorm:"column:currency;not null;default:'usd'"`
	SoldAt           time.Time  `gorm:"column:sold_at;not null"`
	Refunded         bool       `gorm:"column:refunded;not null;default:false"`
	RefundedAt       *time.Time `gorm:"column:refunded_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
