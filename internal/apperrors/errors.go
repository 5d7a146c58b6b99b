// Package apperrors holds the error kinds shared by the catalog, slot, booking
// and settlement packages. Callers wrap a kind with context and higher layers
// match it with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed service or booking input. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrEligibility marks a party-size, identity or booking-policy violation.
	ErrEligibility = errors.New("eligibility error")
	// ErrCapacityExceeded marks a full or closed slot, or a protected walk-in reserve.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrConcurrentModification marks a version or status mismatch. Safe to retry with a fresh read.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrInvalidState marks an illegal state transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrSettlementLocked marks a mutation attempted on a locked counter shift.
	ErrSettlementLocked = errors.New("settlement locked")
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")
)

func Validation(format string, args ...interface{}) error {
	return wrap(ErrValidation, format, args...)
}

func Eligibility(format string, args ...interface{}) error {
	return wrap(ErrEligibility, format, args...)
}

func CapacityExceeded(format string, args ...interface{}) error {
	return wrap(ErrCapacityExceeded, format, args...)
}

func ConcurrentModification(format string, args ...interface{}) error {
	return wrap(ErrConcurrentModification, format, args...)
}

func InvalidState(format string, args ...interface{}) error {
	return wrap(ErrInvalidState, format, args...)
}

func SettlementLocked(format string, args ...interface{}) error {
	return wrap(ErrSettlementLocked, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

func wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error kind to the response code handlers return.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrEligibility):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrConcurrentModification),
		errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrSettlementLocked):
		return http.StatusLocked
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine-readable kind sent alongside the message.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrEligibility):
		return "ELIGIBILITY_ERROR"
	case errors.Is(err, ErrCapacityExceeded):
		return "CAPACITY_EXCEEDED"
	case errors.Is(err, ErrConcurrentModification):
		return "CONCURRENT_MODIFICATION"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, ErrSettlementLocked):
		return "SETTLEMENT_LOCKED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}
