package types

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type Timestamps struct {
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at,omitempty"`
}

type EventStatus string

const (
	EVENT_DRAFT     EventStatus = "draft"
	EVENT_PUBLISHED EventStatus = "published"
	EVENT_CANCELLED EventStatus = "cancelled"
	EVENT_COMPLETED EventStatus = "completed"
)

type TicketStatus string

const (
	TICKET_PURCHASED TicketStatus = "PURCHASED"
	TICKET_VALIDATED TicketStatus = "VALIDATED"
	TICKET_CANCELLED TicketStatus = "CANCELLED"
)

type ValidationMethod string

const (
	VALIDATION_QR     ValidationMethod = "QR"
	VALIDATION_MANUAL ValidationMethod = "MANUAL"
)

const (
	ROLE_ATTENDEE  = "attendee"
	ROLE_STAFF     = "staff"
	ROLE_ORGANIZER = "organizer"
)

const (
	TICKET_PURCHASED_EVENT = "ticket.purchased"
	TICKET_VALIDATED_EVENT = "ticket.validated"
)

// Availability is the derived capacity of a ticket type. It is never stored.
type Availability struct {
	TicketTypeID   uuid.UUID `json:"id"`
	TotalAvailable int64     `json:"total"`
	Issued         int64     `json:"issued"`
}

func (a Availability) Remaining() int64 {
	if a.Issued >= a.TotalAvailable {
		return 0
	}
	return a.TotalAvailable - a.Issued
}

// TicketEvent is published after a purchase or validation commits.
type TicketEvent struct {
	Type         string           `json:"type"`
	TicketID     uuid.UUID        `json:"ticket_id"`
	TicketTypeID uuid.UUID        `json:"ticket_type_id,omitempty"`
	UserID       uuid.UUID        `json:"user_id,omitempty"`
	Method       ValidationMethod `json:"method,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type SimpleRequestParams struct {
	ID string `uri:"id" binding:"required"`
}

type TicketValidationRequestBody struct {
	Method ValidationMethod `json:"method" binding:"required,oneof=QR MANUAL"`
	ID     string           `json:"id" binding:"required,ticketkey"`
}

type TicketValidationsQuery struct {
	TicketID string `form:"ticket" binding:"required"`
}
