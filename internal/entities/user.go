package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID                  string     `gorm:"primaryKey;size:36" json:"id"`
	Name                string     `gorm:"size:255;not null" json:"name"`
	Email               string     `gorm:"uniqueIndex;size:254;not null" json:"email"` // stored lower-cased
	PasswordHash        string     `gorm:"size:72;not null" json:"-"`
	Role                UserRole   `gorm:"size:20;not null;default:'user'" json:"role"`
	IsVerified          bool       `gorm:"default:false" json:"is_verified"`
	MFAEnabled          bool       `gorm:"default:false" json:"mfa_enabled"`
	FailedLoginAttempts int        `gorm:"default:0" json:"failed_login_attempts"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`

	// Set and cleared together.
	PasswordResetTokenHash *string    `gorm:"index;size:64" json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`

	// Bearer tokens issued before this instant are no longer accepted.
	SessionsRevokedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random identifier to new users.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = UserRoleUser
	}
	return nil
}

// HasPendingReset reports whether a reset token is stored for the user.
func (u *User) HasPendingReset() bool {
	return u.PasswordResetTokenHash != nil && u.PasswordResetExpiresAt != nil
}

// PublicUser is the outward representation of a user, without secrets.
type PublicUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       UserRole  `json:"role"`
	IsVerified bool      `json:"is_verified"`
	MFAEnabled bool      `json:"mfa_enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

// Public projects the user onto its client-facing fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		MFAEnabled: u.MFAEnabled,
		CreatedAt:  u.CreatedAt,
	}
}
