package crocodile

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrAlreadyExists = errors.New("already_exists")
	ErrInvalidLength = errors.New("invalid_length")
	ErrAlreadyActive = errors.New("already_active")
	ErrNoActiveGame  = errors.New("no_active_game")
	ErrStore         = errors.New("store_error")
	ErrNotify        = errors.New("notify_failure")
)

// StoreError is an infrastructure failure of the state store. It matches both
// ErrStore and the underlying error.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// NotifyFailure is a message that could not be delivered to a chat. It is
// logged by the caller and never undoes a state change.
type NotifyFailure struct {
	ChatID int64
	Err    error
}

func (e *NotifyFailure) Error() string {
	return "notify chat " + strconv.FormatInt(e.ChatID, 10) + ": " + e.Err.Error()
}

func (e *NotifyFailure) Unwrap() []error {
	return []error{ErrNotify, e.Err}
}

// LengthError reports which field of a catalog entry is out of bounds.
// It matches ErrInvalidLength. Max is 0 when there is no upper bound.
type LengthError struct {
	Field string
	Len   int
	Min   int
	Max   int
}

func (e *LengthError) Error() string {
	if e.Max > 0 {
		return fmt.Sprintf("%s: %s must be %d-%d characters, got %d", ErrInvalidLength, e.Field, e.Min, e.Max, e.Len)
	}
	return fmt.Sprintf("%s: %s must be at least %d characters, got %d", ErrInvalidLength, e.Field, e.Min, e.Len)
}

func (e *LengthError) Unwrap() error { return ErrInvalidLength }
