package models

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleEmployee   Role = "employee"
)

// Identity is the authenticated caller. Every core operation receives it
// explicitly instead of reading a request-global user.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// IsManager reports whether the caller may see and manage other users' data.
func (i Identity) IsManager() bool {
	return i.Role == RoleAdmin || i.Role == RoleSupervisor
}

// CanAccess reports whether the caller may read or act on userID's records.
func (i Identity) CanAccess(userID uuid.UUID) bool {
	return i.IsManager() || (i.UserID != uuid.Nil && i.UserID == userID)
}
