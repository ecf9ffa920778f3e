package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"ticketcore/src/models"
	"ticketcore/src/models/scopes"
	"ticketcore/src/types"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
	pgInvalidTextRepresent = "22P02"
)

var errNoTx = errors.New("row lock requested outside a transaction")

type txKey struct{}

// Store implements the ticketing repository on postgres. Row locks are
// taken with SELECT ... FOR UPDATE and bounded by lock_timeout.
type Store struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func New(db *gorm.DB, lockTimeout time.Duration) *Store {
	return &Store{db: db, lockTimeout: lockTimeout}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func (s *Store) lockConn(ctx context.Context) (*gorm.DB, error) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	if !ok {
		return nil, errNoTx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}), nil
}

// lockTimeoutMillis rounds up to whole milliseconds and never returns 0,
// which postgres treats as waiting forever.
func lockTimeoutMillis(d time.Duration) int64 {
	ms := int64((d + time.Millisecond - 1) / time.Millisecond)
	return max(ms, 1)
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeoutMillis(s.lockTimeout))
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return wrap("transaction", err, nil)
}

func (s *Store) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Scopes(scopes.WithID(id)).Take(&user).Error; err != nil {
		return nil, wrap("find user", err, types.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Store) FindUserBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("subject = ?", subject).Take(&user).Error; err != nil {
		return nil, wrap("find user by subject", err, types.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Store) GetTicketType(ctx context.Context, id uuid.UUID) (*models.TicketType, error) {
	var tt models.TicketType
	if err := s.conn(ctx).Scopes(scopes.WithID(id)).Take(&tt).Error; err != nil {
		return nil, wrap("get ticket type", err, types.ErrTicketTypeNotFound)
	}
	return &tt, nil
}

func (s *Store) LockTicketType(ctx context.Context, id uuid.UUID) (*models.TicketType, error) {
	tx, err := s.lockConn(ctx)
	if err != nil {
		return nil, err
	}
	var tt models.TicketType
	if err := tx.Scopes(scopes.WithID(id)).Take(&tt).Error; err != nil {
		return nil, wrap("lock ticket type", err, types.ErrTicketTypeNotFound)
	}
	return &tt, nil
}

func (s *Store) CountIssuedTickets(ctx context.Context, ticketTypeID uuid.UUID) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Ticket{}).Scopes(scopes.Issued(ticketTypeID)).Count(&n).Error; err != nil {
		return 0, wrap("count issued tickets", err, nil)
	}
	return n, nil
}

func (s *Store) ListAvailability(ctx context.Context) ([]types.Availability, error) {
	var items []types.Availability
	err := s.conn(ctx).
		Model(&models.TicketType{}).
		Select("ticket_types.id AS ticket_type_id, ticket_types.total_available, COUNT(tickets.id) AS issued").
		Joins("LEFT JOIN tickets ON tickets.ticket_type_id = ticket_types.id AND tickets.status <> ?", types.TICKET_CANCELLED).
		Group("ticket_types.id").
		Scan(&items).
		Error
	if err != nil {
		return nil, wrap("list availability", err, nil)
	}
	return items, nil
}

func (s *Store) CreateTicket(ctx context.Context, ticket *models.Ticket, qr *models.QrCode) error {
	tx := s.conn(ctx)
	if err := tx.Omit(clause.Associations).Create(ticket).Error; err != nil {
		return wrap("create ticket", err, nil)
	}
	if err := tx.Create(qr).Error; err != nil {
		return wrap("create qr code", err, nil)
	}
	return nil
}

func (s *Store) FindTicketIDByCredential(ctx context.Context, credential string) (uuid.UUID, error) {
	var qr models.QrCode
	if err := s.conn(ctx).Where("value = ?", credential).Take(&qr).Error; err != nil {
		return uuid.Nil, wrap("find credential", err, types.ErrTicketNotFound)
	}
	return qr.TicketID, nil
}

func (s *Store) LockTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	tx, err := s.lockConn(ctx)
	if err != nil {
		return nil, err
	}
	var ticket models.Ticket
	if err := tx.Scopes(scopes.WithID(id)).Take(&ticket).Error; err != nil {
		return nil, wrap("lock ticket", err, types.ErrTicketNotFound)
	}
	return &ticket, nil
}

// TransitionTicket moves a ticket from one status to another only if it is
// still in from. It reports whether a row changed.
func (s *Store) TransitionTicket(ctx context.Context, id uuid.UUID, from, to types.TicketStatus) (bool, error) {
	res := s.conn(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, wrap("transition ticket", res.Error, nil)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) CreateValidation(ctx context.Context, v *models.TicketValidation) error {
	if err := s.conn(ctx).Create(v).Error; err != nil {
		return wrap("create validation", err, nil)
	}
	return nil
}

func (s *Store) ListValidations(ctx context.Context, ticketID uuid.UUID) ([]models.TicketValidation, error) {
	var items []models.TicketValidation
	if err := s.conn(ctx).Where("ticket_id = ?", ticketID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, wrap("list validations", err, nil)
	}
	return items, nil
}

func (s *Store) ListTicketsForUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.conn(ctx).
		Scopes(scopes.OwnedBy(userID)).
		Preload("TicketType").
		Preload("TicketType.Event").
		Preload("QrCode").
		Order("created_at DESC").
		Find(&tickets).
		Error
	if err != nil {
		return nil, wrap("list tickets", err, nil)
	}
	return tickets, nil
}

func (s *Store) GetTicketForUser(ctx context.Context, userID, ticketID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.conn(ctx).
		Scopes(scopes.OwnedBy(userID), scopes.WithID(ticketID)).
		Preload("TicketType").
		Preload("TicketType.Event").
		Preload("QrCode").
		Preload("Validations").
		Take(&ticket).
		Error
	if err != nil {
		return nil, wrap("get ticket", err, types.ErrTicketNotFound)
	}
	return &ticket, nil
}

// wrap classifies a gorm or driver error. notFound is returned for a missing
// record when the caller expects one.
func wrap(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ErrLockTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable:
			return types.ErrLockTimeout
		case pgUniqueViolation:
			return types.ErrCredentialCollision
		case pgInvalidTextRepresent:
			return types.ErrInvalidID
		}
	}
	if errors.Is(err, errNoTx) {
		return err
	}
	log.Printf("[pgstore] %s: %s\n", op, err.Error())
	return types.StorageFailure(op, err)
}
