package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's position in the org hierarchy.
type Role string

const (
	RoleMember     Role = "member"
	RoleSubAdmin   Role = "sub_admin"
	RoleAdmin      Role = "admin"
	RoleOwner      Role = "owner"
	RoleSuperadmin Role = "superadmin"
)

// User is the viewer context for visibility decisions. Shadow users are
// hidden superadmin accounts with full access but isolated visibility: their
// content is invisible to the main superadmin and to other shadow users.
type User struct {
	UserID       uuid.UUID // UUIDv7
	OrgID        uuid.UUID
	DepartmentID uuid.UUID

	Name  string
	Email string

	Role          Role
	IsShadow      bool
	ShadowOwnerID *uuid.UUID // main superadmin this shadow account belongs to

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSuperadmin returns true for both main and shadow superadmin accounts.
func (u *User) IsSuperadmin() bool {
	return u.Role == RoleSuperadmin
}
