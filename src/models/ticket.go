package models

import (
	"ticketcore/src/types"

	"github.com/google/uuid"
)

type Ticket struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Status       types.TicketStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TicketTypeID uuid.UUID          `gorm:"type:uuid;not null;index" json:"ticket_type_id"`
	PurchaserID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"purchaser_id"`

	TicketType  *TicketType        `json:"ticket_type,omitempty"`
	Purchaser   *User              `gorm:"foreignKey:PurchaserID" json:"-"`
	QrCode      *QrCode            `json:"qr_code,omitempty"`
	Validations []TicketValidation `json:"validations,omitempty"`

	types.Timestamps
}

func (t *Ticket) Validated() bool {
	return t.Status == types.TICKET_VALIDATED
}
