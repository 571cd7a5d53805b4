package enums

// CheckoutSessionStatus tracks the local view of an issued payment session.
type CheckoutSessionStatus string

const (
	CheckoutSessionStatusPending   CheckoutSessionStatus = "pending"
	CheckoutSessionStatusCompleted CheckoutSessionStatus = "completed"
	CheckoutSessionStatusExpired   CheckoutSessionStatus = "expired"
)

// IsValid reports whether the value matches the canonical checkout_session_status enum.
func (s CheckoutSessionStatus) IsValid() bool {
	switch s {
	case CheckoutSessionStatusPending, CheckoutSessionStatusCompleted, CheckoutSessionStatusExpired:
		return true
	}
	return false
}
