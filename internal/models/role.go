package models

// Role identifies what a user may do. Every user carries exactly one.
type Role string

const (
	RoleApplicationAdmin Role = "APPLICATION_ADMIN"
	RoleFarmAdmin        Role = "FARM_ADMIN"
	RoleFieldManager     Role = "FIELD_MANAGER"
	RoleFarmer           Role = "FARMER"
)

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	switch r {
	case RoleApplicationAdmin, RoleFarmAdmin, RoleFieldManager, RoleFarmer:
		return true
	}
	return false
}
