package models

import (
	"time"

	"github.com/google/uuid"
)

// QrCode binds one credential to one ticket. It is written once with the
// ticket and never updated.
type QrCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`
	Value     string    `gorm:"type:varchar(128);not null;uniqueIndex" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at,omitempty"`
}
