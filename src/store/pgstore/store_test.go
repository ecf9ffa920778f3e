package pgstore

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ticketcore/src/models"
	"ticketcore/src/types"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	return newMockStoreWithTimeout(t, 250*time.Millisecond)
}

func newMockStoreWithTimeout(t *testing.T, lockTimeout time.Duration) (*Store, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return New(gormDB, lockTimeout), mock
}

func TestWithTx_SubMillisecondLockTimeout(t *testing.T) {
	s, mock := newMockStoreWithTimeout(t, 500*time.Microsecond)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout = '1ms'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, s.WithTx(context.Background(), func(ctx context.Context) error { return nil }))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockTimeoutMillis(t *testing.T) {
	assert.Equal(t, int64(1), lockTimeoutMillis(0))
	assert.Equal(t, int64(1), lockTimeoutMillis(500*time.Microsecond))
	assert.Equal(t, int64(1), lockTimeoutMillis(time.Millisecond))
	assert.Equal(t, int64(2), lockTimeoutMillis(1500*time.Microsecond))
	assert.Equal(t, int64(5000), lockTimeoutMillis(5*time.Second))
}

func TestLockTicketType(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout = '250ms'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "ticket_types" WHERE id = .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_available"}).AddRow(id.String(), "General", 3))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tickets" WHERE ticket_type_id = .* AND status <> `).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()

	var (
		tt     *models.TicketType
		issued int64
	)
	err := s.WithTx(context.Background(), func(ctx context.Context) error {
		var err error
		if tt, err = s.LockTicketType(ctx, id); err != nil {
			return err
		}
		issued, err = s.CountIssuedTickets(ctx, id)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, id, tt.ID)
	assert.Equal(t, 3, tt.TotalAvailable)
	assert.Equal(t, int64(2), issued)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockTicketType_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "ticket_types" .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(ctx context.Context) error {
		_, err := s.LockTicketType(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, types.ErrTicketTypeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockTicket_Timeout(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "tickets" .* FOR UPDATE`).
		WillReturnError(&pgconn.PgError{Code: pgLockNotAvailable, Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(ctx context.Context) error {
		_, err := s.LockTicket(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, types.ErrLockTimeout)
	assert.True(t, types.Retryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockOutsideTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.LockTicket(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errNoTx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionTicket(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tickets" SET "status"=.*WHERE .*id = .* AND status = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	ok, err := s.TransitionTicket(ctx, uuid.New(), types.TICKET_PURCHASED, types.TICKET_VALIDATED)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tickets" SET "status"=`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	ok, err = s.TransitionTicket(ctx, uuid.New(), types.TICKET_PURCHASED, types.TICKET_VALIDATED)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicket_CredentialCollision(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	ticket := &models.Ticket{
		ID:           uuid.New(),
		Status:       types.TICKET_PURCHASED,
		TicketTypeID: uuid.New(),
		PurchaserID:  uuid.New(),
		Timestamps:   types.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	qr := &models.QrCode{ID: uuid.New(), TicketID: ticket.ID, Value: "cafe", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "tickets"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "qr_codes"`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "idx_qr_codes_value"})
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(ctx context.Context) error {
		return s.CreateTicket(ctx, ticket, qr)
	})
	assert.ErrorIs(t, err, types.ErrCredentialCollision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTicketIDByCredential(t *testing.T) {
	s, mock := newMockStore(t)
	ticketID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "qr_codes" WHERE value = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_id", "value"}).AddRow(uuid.New().String(), ticketID.String(), "beef"))
	got, err := s.FindTicketIDByCredential(context.Background(), "beef")
	require.NoError(t, err)
	assert.Equal(t, ticketID, got)

	mock.ExpectQuery(`SELECT \* FROM "qr_codes" WHERE value = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_id", "value"}))
	_, err = s.FindTicketIDByCredential(context.Background(), "dead")
	assert.ErrorIs(t, err, types.ErrTicketNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUser_StorageFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})
	_, err := s.FindUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, types.ErrStorageFailure)
	assert.Equal(t, types.KIND_STORAGE, types.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailability(t *testing.T) {
	s, mock := newMockStore(t)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT ticket_types.id AS ticket_type_id, ticket_types.total_available, COUNT\(tickets.id\) AS issued FROM "ticket_types" LEFT JOIN tickets`).
		WillReturnRows(sqlmock.NewRows([]string{"ticket_type_id", "total_available", "issued"}).
			AddRow(a.String(), 10, 4).
			AddRow(b.String(), 2, 2))

	items, err := s.ListAvailability(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a, items[0].TicketTypeID)
	assert.Equal(t, int64(6), items[0].Remaining())
	assert.Equal(t, int64(0), items[1].Remaining())
	assert.NoError(t, mock.ExpectationsWereMet())
}
