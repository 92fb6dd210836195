package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Persona is the person profile, owned 1:1 by an Account of kind "persona".
type Persona struct {
	gorm.Model
	AccountID uint `gorm:"uniqueIndex;not null"`

	Nome                   string `gorm:"size:100;not null"`
	Cognome                string `gorm:"size:100;not null"`
	DataNascita            *time.Time
	Sesso                  string `gorm:"size:1"`
	Telefono               string `gorm:"size:20"`
	SituazioneSentimentale string `gorm:"size:20"`
	ProfileImageKey        string `gorm:"size:512"`

	// Last known position. Consumed internally for distance queries,
	// never exposed through the privacy projection.
	LastLat      *float64
	LastLng      *float64
	LastAccuracy *float64
	LastLocTS    *time.Time

	// Field names the owner chose to hide from non-owners. Nome and
	// cognome are always public and can never end up in this list.
	HiddenFields datatypes.JSONSlice[string]

	Account Account `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
