package models

import "time"

// ProcessedEvent is the durable idempotency log for provider webhook events.
// The event id is the primary key; claiming an event is a conditional insert
// that commits atomically with the entitlement fan-out.
type ProcessedEvent struct {
	EventID          string    `gorm:"column:event_id;primaryKey"`
	PaymentReference string    `gorm:"column:payment_reference;not null"`
	HandledAt        time.Time `gorm:"column:handled_at;not null"`
}
