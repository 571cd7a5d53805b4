package models

import (
	"time"

	"github.com/google/uuid"
)

// Creator is a seller account that publishes product boxes.
type Creator struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DisplayName     string    `gorm:"column:display_name;not null"`
	Email           string    `gorm:"column:email;not null;unique"`
	StripeAccountID *string   `gorm:"column:stripe_account_id;unique"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
