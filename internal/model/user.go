package model

import (
	"time"
)

// User roles within a tenant
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// ValidRole reports whether the given string is a known role
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// User represents a user account. A user belongs to exactly one tenant and
// the tenant association is immutable once created.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Role         string    `json:"role" gorm:"type:varchar(20);not null;default:'MEMBER'"`
	TenantID     uint      `json:"tenant_id" gorm:"index;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
