package models

import "time"

// Roles, in increasing privilege. Superadmin implies admin-level access.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// ValidRole reports whether r names a known role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin || r == RoleSuperAdmin
}

// IsAdmin reports whether the role grants admin-level access.
func IsAdmin(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// RoleChange is one entry in the append-only role mutation log.
type RoleChange struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	ChangedBy int       `db:"changed_by" json:"changed_by"`
	OldRole   string    `db:"old_role" json:"old_role"`
	NewRole   string    `db:"new_role" json:"new_role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserWithRole is the admin view of an account.
type UserWithRole struct {
	ID        int       `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
