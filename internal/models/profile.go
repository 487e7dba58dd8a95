package models

import (
	"strings"
	"time"
)

// Role is the permission tier carried by an identity's role claim.
type Role string

// Supported roles.
const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// ParseRole normalises a raw role claim. Unknown values yield an empty role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleInstructor:
		return RoleInstructor
	case RoleStudent:
		return RoleStudent
	default:
		return ""
	}
}

// Valid reports whether the role is one of the supported tiers.
func (r Role) Valid() bool {
	return ParseRole(string(r)) != ""
}

// Account is the trusted identity record. Token role claims are issued from
// this row, never from Profile.
type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:16;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the user-editable projection of an identity.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Role      Role      `gorm:"size:16;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
