// Package errs defines the error taxonomy shared by the dispatch pipeline.
//
// Lower layers return plain wrapped errors; the layer that understands the
// failure classifies it with one of the constructors below. Callers inspect
// the classification with KindOf, never by matching message text.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	InvalidArgument     Kind = "InvalidArgument"
	Unauthenticated     Kind = "Unauthenticated"
	PermissionDenied    Kind = "PermissionDenied"
	NotFound            Kind = "NotFound"
	DeliveryUnavailable Kind = "DeliveryUnavailable"
	DeliveryFailed      Kind = "DeliveryFailed"
	Internal            Kind = "Internal"
)

// Error is a classified failure. Message is safe to return to callers; the
// wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified error without a cause.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the classification of err, or Internal for unclassified
// errors. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns the caller-facing message for err. Unclassified
// errors never leak their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps a kind to the status code returned to direct callers.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case DeliveryUnavailable:
		return http.StatusServiceUnavailable
	case DeliveryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON error payload returned to direct callers.
type Body struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// ToBody converts err into its caller-facing payload.
func ToBody(err error) Body {
	return Body{Kind: KindOf(err), Message: PublicMessage(err)}
}
