package enums

// ActorRole identifies the authenticated principal's role.
type ActorRole string

const (
	RoleBuyer   ActorRole = "buyer"
	RoleCreator ActorRole = "creator"
	RoleAdmin   ActorRole = "admin"
)

// IsValid reports whether the value is a known role.
func (r ActorRole) IsValid() bool {
	switch r {
	case RoleBuyer, RoleCreator, RoleAdmin:
		return true
	}
	return false
}
