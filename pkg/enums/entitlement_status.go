package enums

// EntitlementStatus maps to the entitlement_status enum in Postgres.
type EntitlementStatus string

const (
	EntitlementStatusActive  EntitlementStatus = "active"
	EntitlementStatusRevoked EntitlementStatus = "revoked"
)

// IsValid reports whether the value matches the canonical entitlement_status enum.
func (s EntitlementStatus) IsValid() bool {
	switch s {
	case EntitlementStatusActive, EntitlementStatusRevoked:
		return true
	}
	return false
}
