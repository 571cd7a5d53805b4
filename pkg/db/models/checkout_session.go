package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/crateful-app/crateful-backend/pkg/enums"
)

// CheckoutSession records a payment session issued for a buyer/product pair.
// The fulfillment contract itself travels as provider metadata; this row exists
// for operator visibility and to correlate webhooks with issued intents.
type CheckoutSession struct {
	ID               uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID          uuid.UUID                   `gorm:"column:buyer_id;type:uuid;not null;index"`
	ProductID        uuid.UUID                   `gorm:"column:product_id;type:uuid;not null;index"`
	CreatorID        uuid.UUID                   `gorm:"column:creator_id;type:uuid;not null"`
	PaymentReference string                      `gorm:"column:payment_reference;not null;unique"`
	AmountCents      int64                       `gorm:"column:amount_cents;not null"`
	PlatformFeeCents int64                       `gorm:"column:platform_fee_cents;not null"`
	Currency         string                      `gorm:"column:currency;not null;default:'usd'"`
	Status           enums.CheckoutSessionStatus `gorm:"column:status;type:checkout_session_status;not null;default:'pending'"`
	CreatedAt        time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
