package models

import (
	"time"

	"gorm.io/gorm"
)

// Evento is an event published by a venue. Like counts and the per-viewer
// liked flag are computed from the EventLike relation at query time and are
// never stored on the row.
type Evento struct {
	gorm.Model
	LocaleID uint `gorm:"not null;index"`

	Titolo            string `gorm:"size:255;not null"`
	Descrizione       string
	AltreInformazioni string
	Programma         string
	InformazioniUtili string

	DataEvento   time.Time `gorm:"not null;index"`
	OrarioEvento string    `gorm:"size:8;not null"` // "HH:MM"
	Luogo        string    `gorm:"size:255"`

	Prezzo           *float64
	PostiDisponibili *int

	LocandinaKey string `gorm:"size:512"`
	CopertinaKey string `gorm:"size:512"`

	Locale Locale `gorm:"foreignKey:LocaleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
