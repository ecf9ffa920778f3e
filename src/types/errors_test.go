package types

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{nil, ""},
		{ErrTicketNotFound, KIND_NOT_FOUND},
		{fmt.Errorf("purchase: %w", ErrTicketsSoldOut), KIND_CAPACITY_EXHAUSTED},
		{ErrTicketCancelled, KIND_INVALID_STATE_TRANSITION},
		{ErrLockTimeout, KIND_TIMEOUT},
		{context.DeadlineExceeded, KIND_TIMEOUT},
		{StorageFailure("count", errors.New("broken pipe")), KIND_STORAGE},
		{errors.New("boom"), KIND_UNEXPECTED},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, KindOf(c.err), "%v", c.err)
	}
}

func TestStorageFailureMatchesSentinel(t *testing.T) {
	cause := errors.New("connection reset")
	err := StorageFailure("lock ticket", cause)

	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrLockTimeout)
	assert.Contains(t, err.Error(), "lock ticket")
}

func TestAlreadyValidatedIsNotCancelled(t *testing.T) {
	assert.NotErrorIs(t, ErrTicketAlreadyValidated, ErrTicketCancelled)
	assert.Equal(t, KindOf(ErrTicketAlreadyValidated), KindOf(ErrTicketCancelled))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ErrLockTimeout))
	assert.True(t, Retryable(StorageFailure("x", errors.New("y"))))
	assert.False(t, Retryable(ErrTicketsSoldOut))
	assert.False(t, Retryable(ErrTicketNotFound))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "capacity_exhausted", Outcome(ErrTicketsSoldOut))
}

func TestAvailabilityRemaining(t *testing.T) {
	assert.Equal(t, int64(2), Availability{TotalAvailable: 5, Issued: 3}.Remaining())
	assert.Equal(t, int64(0), Availability{TotalAvailable: 1, Issued: 3}.Remaining())
}
