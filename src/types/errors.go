package types

import (
	"context"
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KIND_NOT_FOUND                ErrorKind = "not_found"
	KIND_CAPACITY_EXHAUSTED       ErrorKind = "capacity_exhausted"
	KIND_INVALID_STATE_TRANSITION ErrorKind = "invalid_state_transition"
	KIND_TIMEOUT                  ErrorKind = "timeout"
	KIND_STORAGE                  ErrorKind = "storage_failure"
	KIND_UNEXPECTED               ErrorKind = "unexpected"
)

// Error is a classified failure returned by the ticketing core.
type Error struct {
	Kind    ErrorKind
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Op != "" && e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Message, e.Op, e.Err.Error())
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by identity of kind and message, so a
// StorageFailure wrapping a driver error still compares equal to
// ErrStorageFailure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

var (
	ErrUserNotFound       = &Error{Kind: KIND_NOT_FOUND, Message: "user not found"}
	ErrTicketTypeNotFound = &Error{Kind: KIND_NOT_FOUND, Message: "ticket type not found"}
	ErrTicketNotFound     = &Error{Kind: KIND_NOT_FOUND, Message: "ticket not found"}

	ErrTicketsSoldOut = &Error{Kind: KIND_CAPACITY_EXHAUSTED, Message: "tickets are sold out"}

	ErrTicketAlreadyValidated = &Error{Kind: KIND_INVALID_STATE_TRANSITION, Message: "ticket has already been validated"}
	ErrTicketCancelled        = &Error{Kind: KIND_INVALID_STATE_TRANSITION, Message: "ticket has been cancelled"}

	ErrLockTimeout    = &Error{Kind: KIND_TIMEOUT, Message: "could not acquire lock in time"}
	ErrStorageFailure = &Error{Kind: KIND_STORAGE, Message: "storage failure"}

	ErrInvalidID           = &Error{Kind: KIND_UNEXPECTED, Message: "invalid id"}
	ErrCredentialCollision = &Error{Kind: KIND_UNEXPECTED, Message: "credential collision"}
)

// StorageFailure wraps a driver error raised while running op.
func StorageFailure(op string, err error) error {
	return &Error{Kind: KIND_STORAGE, Message: ErrStorageFailure.Message, Op: op, Err: err}
}

func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KIND_TIMEOUT
	}
	return KIND_UNEXPECTED
}

// Retryable reports whether the caller may safely retry the call that failed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KIND_TIMEOUT, KIND_STORAGE:
		return true
	}
	return false
}

// Outcome is the metrics label for a call result.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(KindOf(err))
}
