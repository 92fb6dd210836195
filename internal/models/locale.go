package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Locale is the venue profile, owned 1:1 by an Account of kind "locale".
// Venues have a fixed position; events inherit it unless they override Luogo.
type Locale struct {
	gorm.Model
	AccountID uint `gorm:"uniqueIndex;not null"`

	NomeLocale       string `gorm:"size:150;not null"`
	Indirizzo        string `gorm:"not null"`
	PartitaIVA       string `gorm:"size:20"`
	TelefonoContatto string `gorm:"size:20"`
	ProfileImageKey  string `gorm:"size:512"`
	Latitudine       *float64
	Longitudine      *float64

	// Field names the owner chose to hide from non-owners. Unlike persona
	// profiles there is no always-public carve-out for venues.
	HiddenFields datatypes.JSONSlice[string]

	Account Account `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
