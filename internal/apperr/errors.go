// Package apperr defines the error kinds surfaced by an analysis.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an analysis failure
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"        // Caller's fault
	KindUpstreamUnavailable Kind = "upstream_unavailable" // Network failure, timeout or provider outage
	KindUpstreamRateLimit   Kind = "upstream_rate_limit"  // Provider throttled the request
	KindUpstreamAuth        Kind = "upstream_auth"        // Provider rejected our credentials
	KindMalformedResponse   Kind = "malformed_response"   // Provider reply did not match the schema
)

// Error is a classified analysis failure
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// InvalidInput reports a request the caller must fix
func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message, nil)
}

// UpstreamUnavailable reports a provider that could not be reached or failed
func UpstreamUnavailable(message string, cause error) *Error {
	return New(KindUpstreamUnavailable, message, cause)
}

// UpstreamRateLimit reports provider throttling
func UpstreamRateLimit(message string, cause error) *Error {
	return New(KindUpstreamRateLimit, message, cause)
}

// UpstreamAuth reports invalid provider credentials
func UpstreamAuth(message string, cause error) *Error {
	return New(KindUpstreamAuth, message, cause)
}

// MalformedResponse reports a provider reply that does not match the schema
func MalformedResponse(message string, cause error) *Error {
	return New(KindMalformedResponse, message, cause)
}

// KindOf returns the kind of the first classified error in err's chain
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func IsInvalidInput(err error) bool        { return Is(err, KindInvalidInput) }
func IsUpstreamUnavailable(err error) bool { return Is(err, KindUpstreamUnavailable) }
func IsUpstreamRateLimit(err error) bool   { return Is(err, KindUpstreamRateLimit) }
func IsUpstreamAuth(err error) bool        { return Is(err, KindUpstreamAuth) }
func IsMalformedResponse(err error) bool   { return Is(err, KindMalformedResponse) }

// HTTPStatus maps a kind to the status returned to API clients
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUpstreamRateLimit:
		return http.StatusTooManyRequests
	case KindUpstreamAuth, KindMalformedResponse:
		return http.StatusBadGateway
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus classifies a non-2xx provider status code
func FromHTTPStatus(provider string, status int, cause error) *Error {
	switch {
	case status == http.StatusTooManyRequests:
		return UpstreamRateLimit(fmt.Sprintf("%s rate limit exceeded", provider), cause)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return UpstreamAuth(fmt.Sprintf("%s rejected credentials", provider), cause)
	default:
		return UpstreamUnavailable(fmt.Sprintf("%s returned HTTP %d", provider, status), cause)
	}
}
