package services

import (
	"errors"
	"fmt"

	"github.com/eventdesk/backend/internal/repositories"
)

// ValidationError is malformed or missing input, rejected before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PermissionError means the actor lacks the role or ownership the operation needs.
type PermissionError struct {
	Op      string
	Message string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("not allowed to %s: %s", e.Op, e.Message)
}

// PreconditionError means the event's current status does not permit the operation.
type PreconditionError struct {
	Status  string
	Message string
}

func (e *PreconditionError) Error() string {
	if e.Status == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (status %s)", e.Message, e.Status)
}

// StoreError wraps a failed read or write. Not-found lookups wrap repositories.ErrNotFound.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// CompensationError means a multi-step write failed and could not be rolled back.
// The event is partially updated and needs manual attention.
type CompensationError struct {
	Op          string
	Err         error
	RollbackErr error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("%s partially applied, investigate: %v (rollback: %v)", e.Op, e.Err, e.RollbackErr)
}

func (e *CompensationError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a lookup that found nothing.
func IsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}

// storeErr classifies a repository error. Errors that are already typed pass through.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		ve *ValidationError
		pe *PermissionError
		ce *PreconditionError
		se *StoreError
		co *CompensationError
	)
	if errors.As(err, &co) {
		return co
	}

	var rb *repositories.RollbackError
	if errors.As(err, &rb) {
		return &CompensationError{Op: op, Err: rb.Err, RollbackErr: rb.RollbackErr}
	}

	switch {
	case errors.As(err, &ve):
		return ve
	case errors.As(err, &pe):
		return pe
	case errors.As(err, &ce):
		return ce
	case errors.As(err, &se):
		return se
	case errors.Is(err, repositories.ErrStatusConflict):
		return &PreconditionError{Message: "event status changed while " + op}
	}
	return &StoreError{Op: op, Err: err}
}
