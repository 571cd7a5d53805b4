package enums

// ProductBoxStatus maps to the product_box_status enum in Postgres.
type ProductBoxStatus string

const (
	ProductBoxStatusDraft    ProductBoxStatus = "draft"
	ProductBoxStatusActive   ProductBoxStatus = "active"
	ProductBoxStatusArchived ProductBoxStatus = "archived"
)

// IsValid reports whether the value matches the canonical product_box_status enum.
func (s ProductBoxStatus) IsValid() bool {
	switch s {
	case ProductBoxStatusDraft, ProductBoxStatusActive, ProductBoxStatusArchived:
		return true
	}
	return false
}
