package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrClientNotFound  = errors.New("client not found")
	// ErrConcurrencyConflict is returned when the optimistic version check
	// fails twice in a row for the same invoice.
	ErrConcurrencyConflict = errors.New("invoice was modified concurrently")
)

// ValidationError rejects an operation before any mutation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// DispatchError wraps a mail dispatcher failure. Non-fatal in batch runs:
// the outcome is recorded and processing continues.
type DispatchError struct {
	Recipient string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s failed: %v", e.Recipient, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
