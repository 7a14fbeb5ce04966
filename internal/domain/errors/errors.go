package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of them.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("access denied")
	ErrConflict        = errors.New("conflict")
	ErrCapacity        = errors.New("insufficient capacity")
	ErrTransient       = errors.New("transient failure")
	ErrExternal        = errors.New("external service failure")
)

var (
	ErrInvalidAddress      = fmt.Errorf("%w: invalid shipping address", ErrValidation)
	ErrInvalidQuantity     = fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	ErrEmptyCart           = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrProductUnavailable  = fmt.Errorf("%w: product not available", ErrValidation)
	ErrMissingReference    = fmt.Errorf("%w: payment reference is required", ErrValidation)
	ErrInvalidStatusFilter = fmt.Errorf("%w: unknown order status", ErrValidation)
	ErrInvalidTransition   = fmt.Errorf("%w: only pending orders can be cancelled", ErrConflict)
	ErrProductNotFound     = fmt.Errorf("%w: product not found", ErrNotFound)
	ErrOrderNotFound       = fmt.Errorf("%w: order not found", ErrNotFound)
	ErrNotOrderOwner       = fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	ErrInsufficientStock   = fmt.Errorf("%w: insufficient stock", ErrCapacity)
	ErrOrderNumberTaken    = fmt.Errorf("%w: order number already exists", ErrConflict)
	ErrOrderNumberConflict = fmt.Errorf("%w: could not allocate order number, retry", ErrConflict)
	ErrRequestInProgress   = fmt.Errorf("%w: request with this idempotency key is in progress", ErrConflict)
	ErrTransactionFailed   = fmt.Errorf("%w: transaction failed", ErrTransient)
	ErrPaymentUnverified   = fmt.Errorf("%w: payment could not be verified", ErrExternal)
	ErrInvalidSignature    = fmt.Errorf("%w: invalid webhook signature", ErrUnauthenticated)
)

// AddressError names the first missing shipping address field.
type AddressError struct {
	Field string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s is required in shipping address", e.Field)
}

func (e *AddressError) Unwrap() error { return ErrInvalidAddress }

// UnavailableError reports a product that cannot be ordered right now.
type UnavailableError struct {
	Product string
}

func (e *UnavailableError) Error() string {
	if e.Product == "" {
		return "Product not available"
	}
	return fmt.Sprintf("%s is no longer available", e.Product)
}

func (e *UnavailableError) Unwrap() error { return ErrProductUnavailable }

// StockError reports a line whose requested quantity exceeds current stock.
type StockError struct {
	ProductID string
	Product   string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	if e.Product == "" {
		return fmt.Sprintf("Insufficient stock. Only %d available", e.Available)
	}
	return fmt.Sprintf("Insufficient stock for %s. Only %d available", e.Product, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// Kind is a coarse machine readable error class exposed to clients.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindInvalidTransition Kind = "invalid_transition"
	KindUnauthenticated   Kind = "unauthenticated"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindCapacity          Kind = "capacity"
	KindTransient         Kind = "transient"
	KindExternal          Kind = "external"
	KindInternal          Kind = "internal"
)

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrCapacity):
		return KindCapacity
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrExternal):
		return KindExternal
	default:
		return KindInternal
	}
}
