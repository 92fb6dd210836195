package models

import "gorm.io/gorm"

// AccountKind discriminates person and venue accounts.
type AccountKind string

const (
	KindPersona AccountKind = "persona"
	KindLocale  AccountKind = "locale"
)

// Account represents an authenticated identity. Kind is fixed at
// registration and never changes afterwards. Accounts start inactive and
// are activated through the emailed confirmation link.
type Account struct {
	gorm.Model
	Email        string      `gorm:"size:255;unique;not null"`
	PasswordHash string      `gorm:"size:255;not null"`
	Kind         AccountKind `gorm:"size:20;not null;index"`
	IsActive     bool        `gorm:"not null;default:false"`

	// Single-use opaque tokens for account activation and password reset.
	ActivationToken string `gorm:"size:64;index"`
	ResetToken      string `gorm:"size:64;index"`
}
