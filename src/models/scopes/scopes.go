package scopes

import (
	"ticketcore/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func WithID(id uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func OwnedBy(userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("purchaser_id = ?", userID)
	}
}

// Issued selects tickets that count against a ticket type's capacity.
func Issued(ticketTypeID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("ticket_type_id = ? AND status <> ?", ticketTypeID, types.TICKET_CANCELLED)
	}
}
