package services

import (
	"context"
	"fmt"
	"log"
	"ticketcore/src/lib"
	"ticketcore/src/models"
	"ticketcore/src/types"
	"time"

	"github.com/google/uuid"
)

// InventoryService sells tickets against a ticket type's fixed capacity.
type InventoryService struct {
	repo        Repository
	credentials Credentials
	publisher   Publisher
	now         func() time.Time
}

type Option func(*options)

type options struct {
	publisher Publisher
	now       func() time.Time
}

// WithPublisher sets where committed ticket events are sent.
func WithPublisher(p Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithClock overrides the time source used for new records.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		publisher: noopPublisher{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewInventoryService(repo Repository, credentials Credentials, opts ...Option) *InventoryService {
	o := buildOptions(opts)
	return &InventoryService{
		repo:        repo,
		credentials: credentials,
		publisher:   o.publisher,
		now:         o.now,
	}
}

// Purchase issues one ticket of the given type to the user. The capacity
// check and the ticket insert run under the ticket type's row lock, so
// concurrent purchases of the same type are serialized and never oversell.
func (s *InventoryService) Purchase(ctx context.Context, userID, ticketTypeID uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.purchase(ctx, userID, ticketTypeID)
	lib.TrackPurchase(types.Outcome(err))
	if err != nil {
		switch types.KindOf(err) {
		case types.KIND_CAPACITY_EXHAUSTED, types.KIND_NOT_FOUND:
			log.Printf("[inventory] Purchase of ticket type %s by user %s rejected: %s\n", ticketTypeID, userID, err.Error())
		default:
			log.Printf("[inventory] Purchase of ticket type %s by user %s failed: %s\n", ticketTypeID, userID, err.Error())
		}
		return nil, err
	}

	evt := types.TicketEvent{
		Type:         types.TICKET_PURCHASED_EVENT,
		TicketID:     ticket.ID,
		TicketTypeID: ticket.TicketTypeID,
		UserID:       ticket.PurchaserID,
		OccurredAt:   ticket.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Printf("[inventory] Could not publish %s for ticket %s: %s\n", evt.Type, ticket.ID, err.Error())
	}
	return ticket, nil
}

func (s *InventoryService) purchase(ctx context.Context, userID, ticketTypeID uuid.UUID) (*models.Ticket, error) {
	if userID == uuid.Nil || ticketTypeID == uuid.Nil {
		return nil, types.ErrInvalidID
	}
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ticketID := uuid.New()
	credential, err := s.credentials.Generate(ticketID)
	if err != nil {
		return nil, fmt.Errorf("generate credential: %w", err)
	}

	var ticket *models.Ticket
	err = s.repo.WithTx(ctx, func(ctx context.Context) error {
		ticketType, err := s.repo.LockTicketType(ctx, ticketTypeID)
		if err != nil {
			return err
		}
		defer lib.TrackLockedSection("purchase", time.Now())

		issued, err := s.repo.CountIssuedTickets(ctx, ticketType.ID)
		if err != nil {
			return err
		}
		if issued+1 > int64(ticketType.TotalAvailable) {
			return types.ErrTicketsSoldOut
		}

		now := s.now()
		t := &models.Ticket{
			ID:           ticketID,
			Status:       types.TICKET_PURCHASED,
			TicketTypeID: ticketType.ID,
			PurchaserID:  user.ID,
			Timestamps:   types.Timestamps{CreatedAt: now, UpdatedAt: now},
		}
		qr := &models.QrCode{
			ID:        uuid.New(),
			TicketID:  ticketID,
			Value:     credential,
			CreatedAt: now,
		}
		if err := s.repo.CreateTicket(ctx, t, qr); err != nil {
			return err
		}
		t.TicketType = ticketType
		t.QrCode = qr
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Availability reads a ticket type's remaining capacity without locking.
func (s *InventoryService) Availability(ctx context.Context, ticketTypeID uuid.UUID) (types.Availability, error) {
	if ticketTypeID == uuid.Nil {
		return types.Availability{}, types.ErrInvalidID
	}
	ticketType, err := s.repo.GetTicketType(ctx, ticketTypeID)
	if err != nil {
		return types.Availability{}, err
	}
	issued, err := s.repo.CountIssuedTickets(ctx, ticketType.ID)
	if err != nil {
		return types.Availability{}, err
	}
	return types.Availability{
		TicketTypeID:   ticketType.ID,
		TotalAvailable: int64(ticketType.TotalAvailable),
		Issued:         issued,
	}, nil
}

// RefreshAvailability publishes the remaining count of every ticket type to
// the metrics registry.
func (s *InventoryService) RefreshAvailability(ctx context.Context) error {
	items, err := s.repo.ListAvailability(ctx)
	if err != nil {
		return err
	}
	for _, a := range items {
		lib.SetRemainingTickets(a.TicketTypeID.String(), a.Remaining())
	}
	return nil
}
