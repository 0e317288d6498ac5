// Package apperrors defines the error taxonomy surfaced by the booking
// core. Repositories and services return these; the HTTP layer maps
// Kind to a status code and writes the detail.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindUnauthorized   Kind = "unauthorized"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindDomainConflict Kind = "domain_conflict"
	KindResourceLocked Kind = "resource_locked"
	KindConflict       Kind = "conflict"
	KindInfrastructure Kind = "infrastructure"
)

// Error carries a kind, a stable machine code and a human detail.
type Error struct {
	Kind   Kind
	Code   string
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.cause)
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error by code, or by kind when the target carries
// no code. Lets callers use errors.Is against the sentinels below even
// after WithDetail or Wrap produced a copy.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return t.Code == e.Code
	}
	return t.Kind == e.Kind
}

// WithDetail returns a copy with a different human detail.
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Detail: fmt.Sprintf(format, args...), cause: e.cause}
}

// Wrap returns a copy carrying err as the cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Detail: e.Detail, cause: err}
}

// Sentinels. Compare with errors.Is; derive request-specific messages
// with WithDetail.
var (
	ErrValidation   = &Error{Kind: KindValidation, Code: "VALIDATION_FAILED", Detail: "request validation failed"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Detail: "authentication required"}
	ErrForbidden    = &Error{Kind: KindForbidden, Code: "FORBIDDEN", Detail: "insufficient permissions"}
	ErrNotFound     = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Detail: "resource not found"}

	ErrEventNotAvailable       = &Error{Kind: KindDomainConflict, Code: "EVENT_NOT_AVAILABLE", Detail: "event is not available for booking"}
	ErrInsufficientCapacity    = &Error{Kind: KindDomainConflict, Code: "INSUFFICIENT_CAPACITY", Detail: "insufficient capacity available"}
	ErrNotPending              = &Error{Kind: KindDomainConflict, Code: "NOT_PENDING", Detail: "booking is not in pending state"}
	ErrNotCancellable          = &Error{Kind: KindDomainConflict, Code: "NOT_CANCELLABLE", Detail: "resource cannot be cancelled in its current state"}
	ErrExpired                 = &Error{Kind: KindDomainConflict, Code: "EXPIRED", Detail: "booking hold has expired"}
	ErrHasAvailability         = &Error{Kind: KindDomainConflict, Code: "HAS_AVAILABILITY", Detail: "event has available capacity, book directly instead"}
	ErrDuplicateActiveWaitlist = &Error{Kind: KindDomainConflict, Code: "DUPLICATE_ACTIVE_WAITLIST", Detail: "an active waitlist entry already exists for this event"}
	ErrInvalidTransition       = &Error{Kind: KindDomainConflict, Code: "INVALID_TRANSITION", Detail: "status transition not allowed"}

	ErrResourceLocked  = &Error{Kind: KindResourceLocked, Code: "RESOURCE_LOCKED", Detail: "resource is busy, try again shortly"}
	ErrVersionConflict = &Error{Kind: KindConflict, Code: "VERSION_CONFLICT", Detail: "concurrent modification detected"}
	ErrAlreadyExists   = &Error{Kind: KindConflict, Code: "ALREADY_EXISTS", Detail: "resource already exists"}
)

// Validationf builds a request-shape error.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_FAILED", Detail: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error with a specific subject.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Detail: fmt.Sprintf(format, args...)}
}

// Internal wraps an infrastructure failure. The detail stays generic so
// internals never leak to clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInfrastructure, Code: "INTERNAL", Detail: "internal server error", cause: err}
}

// HTTPStatus maps an error to its transport status. Unrecognized errors
// are infrastructure failures.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDomainConflict:
		return http.StatusBadRequest
	case KindResourceLocked:
		return http.StatusServiceUnavailable
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Detail extracts the client-safe message for err.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return "internal server error"
}

// CodeOf returns the machine code, or INTERNAL for untyped errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}
