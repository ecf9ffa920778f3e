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

// ValidationService admits ticket holders. A ticket moves from PURCHASED to
// VALIDATED at most once; every successful admission leaves one audit record.
type ValidationService struct {
	repo        Repository
	credentials Credentials
	publisher   Publisher
	now         func() time.Time
}

func NewValidationService(repo Repository, credentials Credentials, opts ...Option) *ValidationService {
	o := buildOptions(opts)
	return &ValidationService{
		repo:        repo,
		credentials: credentials,
		publisher:   o.publisher,
		now:         o.now,
	}
}

// Validate dispatches on the method tag: QR keys are credentials, MANUAL keys
// are ticket ids.
func (s *ValidationService) Validate(ctx context.Context, method types.ValidationMethod, key string) (*models.TicketValidation, error) {
	switch method {
	case types.VALIDATION_QR:
		return s.ValidateByCredential(ctx, key)
	case types.VALIDATION_MANUAL:
		id, err := uuid.Parse(key)
		if err != nil {
			lib.TrackValidation(string(method), types.Outcome(types.ErrTicketNotFound))
			return nil, types.ErrTicketNotFound
		}
		return s.ValidateByID(ctx, id)
	}
	return nil, fmt.Errorf("unsupported validation method %q", method)
}

// ValidateByCredential admits the ticket bound to a scanned QR credential.
func (s *ValidationService) ValidateByCredential(ctx context.Context, credential string) (*models.TicketValidation, error) {
	v, err := s.validateByCredential(ctx, credential)
	return s.finish(ctx, types.VALIDATION_QR, v, err)
}

func (s *ValidationService) validateByCredential(ctx context.Context, credential string) (*models.TicketValidation, error) {
	sealedID, err := s.credentials.Open(credential)
	if err != nil {
		return nil, types.ErrTicketNotFound
	}
	ticketID, err := s.repo.FindTicketIDByCredential(ctx, credential)
	if err != nil {
		return nil, err
	}
	if ticketID != sealedID {
		log.Printf("[validation] Credential does not belong to ticket %s\n", ticketID)
		return nil, types.ErrTicketNotFound
	}
	return s.transition(ctx, ticketID, types.VALIDATION_QR)
}

// ValidateByID admits a ticket looked up by staff from its id.
func (s *ValidationService) ValidateByID(ctx context.Context, ticketID uuid.UUID) (*models.TicketValidation, error) {
	var (
		v   *models.TicketValidation
		err error
	)
	if ticketID == uuid.Nil {
		err = types.ErrTicketNotFound
	} else {
		v, err = s.transition(ctx, ticketID, types.VALIDATION_MANUAL)
	}
	return s.finish(ctx, types.VALIDATION_MANUAL, v, err)
}

// History lists the audit records of a ticket, oldest first.
func (s *ValidationService) History(ctx context.Context, ticketID uuid.UUID) ([]models.TicketValidation, error) {
	if ticketID == uuid.Nil {
		return nil, types.ErrTicketNotFound
	}
	return s.repo.ListValidations(ctx, ticketID)
}

// transition holds the ticket's row lock across the status check, the
// conditional status update and the audit insert.
func (s *ValidationService) transition(ctx context.Context, ticketID uuid.UUID, method types.ValidationMethod) (*models.TicketValidation, error) {
	var validation *models.TicketValidation
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		ticket, err := s.repo.LockTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		defer lib.TrackLockedSection("validate", time.Now())

		switch ticket.Status {
		case types.TICKET_PURCHASED:
		case types.TICKET_VALIDATED:
			return types.ErrTicketAlreadyValidated
		case types.TICKET_CANCELLED:
			return types.ErrTicketCancelled
		default:
			return fmt.Errorf("ticket %s has unknown status %q", ticket.ID, ticket.Status)
		}

		ok, err := s.repo.TransitionTicket(ctx, ticket.ID, types.TICKET_PURCHASED, types.TICKET_VALIDATED)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrTicketAlreadyValidated
		}

		v := &models.TicketValidation{
			ID:        uuid.New(),
			TicketID:  ticket.ID,
			Method:    method,
			Status:    types.TICKET_VALIDATED,
			CreatedAt: s.now(),
		}
		if err := s.repo.CreateValidation(ctx, v); err != nil {
			return err
		}
		validation = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return validation, nil
}

func (s *ValidationService) finish(ctx context.Context, method types.ValidationMethod, v *models.TicketValidation, err error) (*models.TicketValidation, error) {
	lib.TrackValidation(string(method), types.Outcome(err))
	if err != nil {
		switch types.KindOf(err) {
		case types.KIND_NOT_FOUND, types.KIND_INVALID_STATE_TRANSITION:
			log.Printf("[validation] %s validation rejected: %s\n", method, err.Error())
		default:
			log.Printf("[validation] %s validation failed: %s\n", method, err.Error())
		}
		return nil, err
	}

	evt := types.TicketEvent{
		Type:       types.TICKET_VALIDATED_EVENT,
		TicketID:   v.TicketID,
		Method:     v.Method,
		OccurredAt: v.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Printf("[validation] Could not publish %s for ticket %s: %s\n", evt.Type, v.TicketID, err.Error())
	}
	return v, nil
}
