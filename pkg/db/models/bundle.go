package models

import (
	"time"

	"github.com/google/uuid"
)

// Bundle is the legacy purchasable shape that predates product_boxes. Rows are
// read-only; the catalog resolver adapts them into the canonical product view.
type Bundle struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	AmountCents int64     `gorm:"column:amount_cents;not null"`
	Currency    string    `gorm:"column:currency;not null;default:'usd'"`
	Active      bool      `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
