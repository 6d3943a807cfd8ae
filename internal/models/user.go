// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderLocal marks accounts that sign in with email and password.
const ProviderLocal = "local"

// User is a card owner. Local accounts carry a password hash; accounts
// created through an OAuth provider carry the provider's subject instead.
type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    *string   `json:"-"` // nil for OAuth-only accounts
	DisplayName     string    `json:"displayName"`
	Provider        string    `json:"provider"`
	ProviderSubject *string   `json:"-"`
	TOTPSecret      *string   `json:"-"` // set during 2FA setup
	TOTPEnabled     bool      `json:"totpEnabled"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HasPassword reports whether the user can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Needs2FA reports whether sign-in must be confirmed with a TOTP code.
func (u *User) Needs2FA() bool {
	return u.TOTPEnabled && u.TOTPSecret != nil
}
