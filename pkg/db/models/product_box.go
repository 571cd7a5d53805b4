package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/crateful-app/crateful-backend/pkg/enums"
)

// ProductBox is the current schema for purchasable creator content.
type ProductBox struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID   uuid.UUID              `gorm:"column:creator_id;type:uuid;not null;index"`
	Title       string                 `gorm:"column:title;not null"`
	Description *string                `gorm:"column:description"`
	PriceCents  int64                  `gorm:"column:price_cents;not null"`
	Currency    string                 `gorm:"column:currency;not null;default:'usd'"`
	Status      enums.ProductBoxStatus `gorm:"column:status;type:product_box_status;not null;default:'draft'"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
