package booking

import (
	"errors"
)

var (
	ErrBookingIDRequired = errors.New("booking id is required")
	ErrNoOrderIDs        = errors.New("order ids are required")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrSeatUnavailable   = errors.New("one or more seats are no longer available")
	ErrInvalidState      = errors.New("booking is not in a state that allows this action")
	ErrInvalidRequest    = errors.New("invalid request")
)

// StoreError wraps a failed store call. Its message is the store's own,
// which handlers surface to clients unchanged.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// ValidationError carries a client-facing reason for a rejected request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
