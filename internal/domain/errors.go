package domain

import (
	"errors"
	"fmt"
)

// Business errors. These are expected outcomes, propagated to the transport
// layer unchanged and never logged as failures.
var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidState = errors.New("cart is not active")
)

// InsufficientStockError names the offending product so callers can tell the
// user which line to fix.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// ValidationError reports a malformed field in a request payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
