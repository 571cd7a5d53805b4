package payloads

import (
	"time"

	"github.com/google/uuid"
)

// EntitlementGrantedEvent announces that a buyer now owns a product box.
type EntitlementGrantedEvent struct {
	EntitlementID    uuid.UUID `json:"entitlementId"`
	BuyerID          uuid.UUID `json:"buyerId"`
	ProductID        uuid.UUID `json:"productId"`
	CreatorID        uuid.UUID `json:"creatorId"`
	PaymentReference string    `json:"paymentReference"`
	AmountCents      int64     `json:"amountCents"`
	PlatformFeeCents int64     `json:"platformFeeCents"`
	Currency         string    `json:"currency"`
	GrantedAt        time.Time `json:"grantedAt"`
}

// EntitlementRevokedEvent announces that an entitlement was revoked after a refund.
type EntitlementRevokedEvent struct {
	EntitlementID    uuid.UUID `json:"entitlementId"`
	BuyerID          uuid.UUID `json:"buyerId"`
	ProductID        uuid.UUID `json:"productId"`
	CreatorID        uuid.UUID `json:"creatorId"`
	PaymentReference string    `json:"paymentReference"`
	RevokedAt        time.Time `json:"revokedAt"`
}

// CheckoutIssuedEvent announces that a checkout session was created for a buyer.
type CheckoutIssuedEvent struct {
	SessionID        uuid.UUID `json:"sessionId"`
	BuyerID          uuid.UUID `json:"buyerId"`
	ProductID        uuid.UUID `json:"productId"`
	CreatorID        uuid.UUID `json:"creatorId"`
	PaymentReference string    `json:"paymentReference"`
	AmountCents      int64     `json:"amountCents"`
	PlatformFeeCents int64     `json:"platformFeeCents"`
	Currency         string    `json:"currency"`
}
