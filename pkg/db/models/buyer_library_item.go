package models

import (
	"time"

	"github.com/google/uuid"
)

// BuyerLibraryItem is the per-buyer read shape of an entitlement, kept in sync
// by the fan-out write. Buyer-facing library listings query this table only.
type BuyerLibraryItem struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID          uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;index:idx_buyer_library_items_buyer"`
	ProductID        uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	CreatorID        uuid.UUID  `gorm:"column:creator_id;type:uuid;not null"`
	ProductTitle     string     `gorm:"column:product_title;not null"`
	PaymentReference string     `gorm:"column:payment_reference;not null"`
	GrantedAt        time.Time  `gorm:"column:granted_at;not null"`
	Revoked          bool       `gorm:"column:revoked;not null;default:false"`
	RevokedAt        *time.Time `gorm:"column:revoked_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
