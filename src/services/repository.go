package services

import (
	"context"
	"ticketcore/src/models"
	"ticketcore/src/types"

	"github.com/google/uuid"
)

// Repository is the persistence port of the ticketing core.
//
// Lock* methods take a row-scoped exclusive lock held until the enclosing
// WithTx returns. They must be called inside WithTx and fail with
// types.ErrLockTimeout when the lock is not granted in time. All other reads
// are lock-free.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserBySubject(ctx context.Context, subject string) (*models.User, error)

	GetTicketType(ctx context.Context, id uuid.UUID) (*models.TicketType, error)
	LockTicketType(ctx context.Context, id uuid.UUID) (*models.TicketType, error)
	CountIssuedTickets(ctx context.Context, ticketTypeID uuid.UUID) (int64, error)
	ListAvailability(ctx context.Context) ([]types.Availability, error)
	CreateTicket(ctx context.Context, ticket *models.Ticket, qr *models.QrCode) error

	FindTicketIDByCredential(ctx context.Context, credential string) (uuid.UUID, error)
	LockTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	TransitionTicket(ctx context.Context, id uuid.UUID, from, to types.TicketStatus) (bool, error)
	CreateValidation(ctx context.Context, v *models.TicketValidation) error
	ListValidations(ctx context.Context, ticketID uuid.UUID) ([]models.TicketValidation, error)

	ListTicketsForUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error)
	GetTicketForUser(ctx context.Context, userID, ticketID uuid.UUID) (*models.Ticket, error)
}

// Credentials issues and checks the opaque tokens encoded in ticket QR codes.
type Credentials interface {
	Generate(ticketID uuid.UUID) (string, error)
	Open(credential string) (uuid.UUID, error)
}

// Publisher receives ticket events after the owning transaction commits.
type Publisher interface {
	Publish(ctx context.Context, evt types.TicketEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, types.TicketEvent) error { return nil }
