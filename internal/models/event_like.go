package models

import "gorm.io/gorm"

// EventLike is a like edge between an account and an event. The composite
// unique index guarantees at most one like per (account, event) pair; likes
// are toggled by creating and deleting rows, never updated.
type EventLike struct {
	gorm.Model
	AccountID uint `gorm:"not null;uniqueIndex:uq_account_event_like"`
	EventoID  uint `gorm:"not null;uniqueIndex:uq_account_event_like;index"`

	Account Account `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE;"`
	Evento  Evento  `gorm:"foreignKey:EventoID;constraint:OnDelete:CASCADE;"`
}
