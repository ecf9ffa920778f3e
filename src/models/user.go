package models

import (
	"ticketcore/src/types"

	"github.com/google/uuid"
)

type User struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Subject string    `gorm:"uniqueIndex;not null" json:"-"`
	Name    string    `json:"name,omitempty"`
	Email   string    `json:"email,omitempty"`
	Role    string    `gorm:"default:'attendee'" json:"role,omitempty"`

	Tickets []Ticket `gorm:"foreignKey:PurchaserID" json:"tickets,omitempty"`

	types.Timestamps
}
