package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"ticketcore/src/models"
	"ticketcore/src/types"
	"time"

	"github.com/google/uuid"
)

var errNoTx = errors.New("row lock requested outside a transaction")

type txKey struct{}

// tx buffers writes until commit and remembers the locks it holds.
type tx struct {
	held   map[string]bool
	order  []string
	writes []func()
}

// Store is an in-process ticketing repository. Reads see committed state
// only. Writes made inside WithTx become visible together at commit, before
// the transaction's locks are released.
type Store struct {
	mu sync.RWMutex

	users       map[uuid.UUID]models.User
	subjects    map[string]uuid.UUID
	events      map[uuid.UUID]models.Event
	ticketTypes map[uuid.UUID]models.TicketType
	tickets     map[uuid.UUID]models.Ticket
	byType      map[uuid.UUID][]uuid.UUID
	byOwner     map[uuid.UUID][]uuid.UUID
	qrByValue   map[string]models.QrCode
	qrByTicket  map[uuid.UUID]models.QrCode
	validations map[uuid.UUID][]models.TicketValidation

	locks       *lockTable
	lockTimeout time.Duration
}

func New(lockTimeout time.Duration) *Store {
	return &Store{
		users:       map[uuid.UUID]models.User{},
		subjects:    map[string]uuid.UUID{},
		events:      map[uuid.UUID]models.Event{},
		ticketTypes: map[uuid.UUID]models.TicketType{},
		tickets:     map[uuid.UUID]models.Ticket{},
		byType:      map[uuid.UUID][]uuid.UUID{},
		byOwner:     map[uuid.UUID][]uuid.UUID{},
		qrByValue:   map[string]models.QrCode{},
		qrByTicket:  map[uuid.UUID]models.QrCode{},
		validations: map[uuid.UUID][]models.TicketValidation{},
		locks:       newLockTable(),
		lockTimeout: lockTimeout,
	}
}

func txFrom(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	return t, ok
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	t := &tx{held: map[string]bool{}}
	defer func() {
		for i := len(t.order) - 1; i >= 0; i-- {
			s.locks.release(t.order[i])
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	s.mu.Lock()
	for _, w := range t.writes {
		w()
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) lock(ctx context.Context, key string) error {
	t, ok := txFrom(ctx)
	if !ok {
		return errNoTx
	}
	if t.held[key] {
		return nil
	}
	if err := s.locks.acquire(ctx, key, s.lockTimeout); err != nil {
		return err
	}
	t.held[key] = true
	t.order = append(t.order, key)
	return nil
}

// write applies fn at commit inside a transaction, immediately otherwise.
func (s *Store) write(ctx context.Context, fn func()) {
	if t, ok := txFrom(ctx); ok {
		t.writes = append(t.writes, fn)
		return
	}
	s.mu.Lock()
	fn()
	s.mu.Unlock()
}

func (s *Store) FindUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) FindUserBySubject(ctx context.Context, subject string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.subjects[subject]
	s.mu.RUnlock()
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return s.FindUser(ctx, id)
}

func (s *Store) GetTicketType(_ context.Context, id uuid.UUID) (*models.TicketType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tt, ok := s.ticketTypes[id]
	if !ok {
		return nil, types.ErrTicketTypeNotFound
	}
	return &tt, nil
}

func (s *Store) LockTicketType(ctx context.Context, id uuid.UUID) (*models.TicketType, error) {
	if err := s.lock(ctx, "ticket_type:"+id.String()); err != nil {
		return nil, err
	}
	return s.GetTicketType(ctx, id)
}

func (s *Store) CountIssuedTickets(_ context.Context, ticketTypeID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countIssued(ticketTypeID), nil
}

func (s *Store) countIssued(ticketTypeID uuid.UUID) int64 {
	var n int64
	for _, id := range s.byType[ticketTypeID] {
		if s.tickets[id].Status != types.TICKET_CANCELLED {
			n++
		}
	}
	return n
}

func (s *Store) ListAvailability(_ context.Context) ([]types.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]types.Availability, 0, len(s.ticketTypes))
	for id, tt := range s.ticketTypes {
		items = append(items, types.Availability{
			TicketTypeID:   id,
			TotalAvailable: int64(tt.TotalAvailable),
			Issued:         s.countIssued(id),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].TicketTypeID.String() < items[j].TicketTypeID.String()
	})
	return items, nil
}

func (s *Store) CreateTicket(ctx context.Context, ticket *models.Ticket, qr *models.QrCode) error {
	s.mu.RLock()
	_, dupTicket := s.tickets[ticket.ID]
	_, dupValue := s.qrByValue[qr.Value]
	s.mu.RUnlock()
	if dupTicket || dupValue {
		return types.ErrCredentialCollision
	}

	t := *ticket
	t.TicketType, t.Purchaser, t.QrCode, t.Validations = nil, nil, nil, nil
	q := *qr
	s.write(ctx, func() {
		s.putTicket(t, q)
	})
	return nil
}

func (s *Store) putTicket(t models.Ticket, q models.QrCode) {
	s.tickets[t.ID] = t
	s.byType[t.TicketTypeID] = append(s.byType[t.TicketTypeID], t.ID)
	s.byOwner[t.PurchaserID] = append(s.byOwner[t.PurchaserID], t.ID)
	s.qrByValue[q.Value] = q
	s.qrByTicket[t.ID] = q
}

func (s *Store) FindTicketIDByCredential(_ context.Context, credential string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qr, ok := s.qrByValue[credential]
	if !ok {
		return uuid.Nil, types.ErrTicketNotFound
	}
	return qr.TicketID, nil
}

func (s *Store) LockTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	if err := s.lock(ctx, "ticket:"+id.String()); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, types.ErrTicketNotFound
	}
	return &t, nil
}

// TransitionTicket is a compare-and-set on status. Inside a transaction the
// check is repeated at commit.
func (s *Store) TransitionTicket(ctx context.Context, id uuid.UUID, from, to types.TicketStatus) (bool, error) {
	apply := func() bool {
		t, ok := s.tickets[id]
		if !ok || t.Status != from {
			return false
		}
		t.Status = to
		t.UpdatedAt = time.Now().UTC()
		s.tickets[id] = t
		return true
	}

	if _, ok := txFrom(ctx); !ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		return apply(), nil
	}

	s.mu.RLock()
	t, ok := s.tickets[id]
	s.mu.RUnlock()
	if !ok || t.Status != from {
		return false, nil
	}
	s.write(ctx, func() { apply() })
	return true, nil
}

func (s *Store) CreateValidation(ctx context.Context, v *models.TicketValidation) error {
	rec := *v
	s.write(ctx, func() {
		s.validations[rec.TicketID] = append(s.validations[rec.TicketID], rec)
	})
	return nil
}

func (s *Store) ListValidations(_ context.Context, ticketID uuid.UUID) ([]models.TicketValidation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.TicketValidation, len(s.validations[ticketID]))
	copy(items, s.validations[ticketID])
	return items, nil
}

func (s *Store) ListTicketsForUser(_ context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tickets := make([]models.Ticket, 0, len(s.byOwner[userID]))
	for _, id := range s.byOwner[userID] {
		tickets = append(tickets, s.hydrate(s.tickets[id], false))
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}

func (s *Store) GetTicketForUser(_ context.Context, userID, ticketID uuid.UUID) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[ticketID]
	if !ok || t.PurchaserID != userID {
		return nil, types.ErrTicketNotFound
	}
	h := s.hydrate(t, true)
	return &h, nil
}

// hydrate attaches copies of the ticket's type, event and credential.
func (s *Store) hydrate(t models.Ticket, withValidations bool) models.Ticket {
	if tt, ok := s.ticketTypes[t.TicketTypeID]; ok {
		if ev, ok := s.events[tt.EventID]; ok {
			ev.TicketTypes = nil
			tt.Event = &ev
		}
		t.TicketType = &tt
	}
	if qr, ok := s.qrByTicket[t.ID]; ok {
		t.QrCode = &qr
	}
	if withValidations {
		t.Validations = append([]models.TicketValidation(nil), s.validations[t.ID]...)
	}
	return t
}

func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Tickets = nil
	s.users[u.ID] = u
	if u.Subject != "" {
		s.subjects[u.Subject] = u.ID
	}
}

func (s *Store) AddEvent(e models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.TicketTypes = nil
	s.events[e.ID] = e
}

func (s *Store) AddTicketType(tt models.TicketType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tt.Event = nil
	s.ticketTypes[tt.ID] = tt
}

// AddTicket stores a ticket in any status, bypassing capacity checks.
func (s *Store) AddTicket(t models.Ticket, qr models.QrCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.TicketType, t.Purchaser, t.QrCode, t.Validations = nil, nil, nil, nil
	s.putTicket(t, qr)
}

// Ticket returns the committed state of a ticket.
func (s *Store) Ticket(id uuid.UUID) (models.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	return t, ok
}
