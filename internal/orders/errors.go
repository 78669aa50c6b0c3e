package orders

import (
	"errors"
	"fmt"

	"github.com/anasol/cafe-orders/internal/inventory"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthenticated   = errors.New("user not authenticated")
	ErrForbidden         = errors.New("operation not allowed for this user")
	ErrOrderNotFound     = errors.New("order not found")
	ErrBranchNotFound    = errors.New("branch not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Ledger errors surface through the service unchanged.
	ErrProductNotFound   = inventory.ErrProductNotFound
	ErrInsufficientStock = inventory.ErrInsufficientStock

	// ErrConflict signals an optimistic-lock collision; the caller may retry.
	ErrConflict = errors.New("order was modified by another transaction")
)

// ProcessingError wraps storage-layer or otherwise unexpected failures before
// they cross the service boundary. Domain errors above pass through unchanged.
type ProcessingError struct {
	Op    string
	Cause error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("order processing failed in %s: %v", e.Op, e.Cause)
}

func (e *ProcessingError) Unwrap() error { return e.Cause }

var domainErrs = []error{
	ErrValidation, ErrUnauthenticated, ErrForbidden,
	ErrOrderNotFound, ErrBranchNotFound, ErrProductNotFound, ErrUserNotFound,
	ErrInsufficientStock, ErrInvalidTransition, ErrConflict,
}

func wrapValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// wrapErr passes domain errors through and wraps everything else so callers
// never see raw driver failures.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrs {
		if errors.Is(err, d) {
			return err
		}
	}
	return &ProcessingError{Op: op, Cause: err}
}
