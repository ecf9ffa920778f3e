package services

import (
	"context"
	"log"
	"ticketcore/src/models"
	"ticketcore/src/types"

	"github.com/google/uuid"
)

// Renderer turns a credential into an encoded QR image.
type Renderer interface {
	Render(credential string) ([]byte, error)
}

// ImageCache stores rendered QR images by ticket. A miss is reported as
// (nil, nil).
type ImageCache interface {
	Get(ctx context.Context, ticketID uuid.UUID) ([]byte, error)
	Set(ctx context.Context, ticketID uuid.UUID, image []byte) error
}

// TicketService serves a buyer's own tickets. Nothing here takes a lock.
type TicketService struct {
	repo     Repository
	renderer Renderer
	cache    ImageCache
}

type TicketOption func(*TicketService)

func WithImageCache(c ImageCache) TicketOption {
	return func(s *TicketService) {
		s.cache = c
	}
}

func NewTicketService(repo Repository, renderer Renderer, opts ...TicketOption) *TicketService {
	s := &TicketService{repo: repo, renderer: renderer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TicketService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserNotFound
	}
	return s.repo.ListTicketsForUser(ctx, userID)
}

func (s *TicketService) GetForUser(ctx context.Context, userID, ticketID uuid.UUID) (*models.Ticket, error) {
	if userID == uuid.Nil || ticketID == uuid.Nil {
		return nil, types.ErrTicketNotFound
	}
	return s.repo.GetTicketForUser(ctx, userID, ticketID)
}

// QrCodeImage returns the QR image of a ticket owned by the user. Rendered
// images are cached when a cache is configured; cache failures only cost a
// re-render.
func (s *TicketService) QrCodeImage(ctx context.Context, userID, ticketID uuid.UUID) ([]byte, error) {
	ticket, err := s.GetForUser(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.QrCode == nil {
		return nil, types.ErrTicketNotFound
	}

	if s.cache != nil {
		img, err := s.cache.Get(ctx, ticket.ID)
		if err != nil {
			log.Printf("[tickets] Could not read cached QR code for %s: %s\n", ticket.ID, err.Error())
		} else if img != nil {
			return img, nil
		}
	}

	img, err := s.renderer.Render(ticket.QrCode.Value)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, ticket.ID, img); err != nil {
			log.Printf("[tickets] Could not cache QR code for %s: %s\n", ticket.ID, err.Error())
		}
	}
	return img, nil
}
