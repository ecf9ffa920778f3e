package models

import (
	"ticketcore/src/types"
	"time"

	"github.com/google/uuid"
)

// TicketValidation is an append-only audit record of a successful admission.
type TicketValidation struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID  uuid.UUID              `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Method    types.ValidationMethod `gorm:"type:varchar(10);not null" json:"method"`
	Status    types.TicketStatus     `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt time.Time              `gorm:"autoCreateTime" json:"created_at"`
}
