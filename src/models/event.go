package models

import (
	"ticketcore/src/types"
	"time"

	"github.com/google/uuid"
)

// Event is owned by the external event store; the core only reads it.
type Event struct {
	ID     uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name   string            `json:"name,omitempty"`
	Venue  string            `json:"venue,omitempty"`
	Start  *time.Time        `json:"start,omitempty"`
	End    *time.Time        `json:"end,omitempty"`
	Status types.EventStatus `gorm:"type:varchar(20);default:'draft'" json:"status,omitempty"`

	TicketTypes []TicketType `json:"ticket_types,omitempty"`

	types.Timestamps
}
