package models

import (
	"ticketcore/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketType carries a fixed capacity. Remaining capacity is derived by
// counting non-cancelled tickets, never stored.
type TicketType struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EventID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"event_id"`
	Name           string          `gorm:"not null" json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	TotalAvailable int             `gorm:"not null" json:"total_available"`

	Event *Event `json:"event,omitempty"`

	types.Timestamps
}
