package domain

// The two fixed roles. Values are the wire names accepted in user_type.
const (
	RoleOps    = "ops"
	RoleClient = "client"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	return r == RoleOps || r == RoleClient
}
