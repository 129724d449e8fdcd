// Package errx defines the error taxonomy shared by the upstream gateway
// and the HTTP surface.
package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	Unknown Kind = iota
	// ConfigurationMissing means required credentials were absent; no network call was made.
	ConfigurationMissing
	// CredentialRejected means the upstream explicitly refused our credentials.
	CredentialRejected
	// UpstreamDataMissing means the upstream answered without the expected payload.
	UpstreamDataMissing
	// TransportFailure covers network and decoding faults.
	TransportFailure
	InvalidRequest
	NotImplemented
)

func (k Kind) String() string {
	switch k {
	case ConfigurationMissing:
		return "configuration_missing"
	case CredentialRejected:
		return "credential_rejected"
	case UpstreamDataMissing:
		return "upstream_data_missing"
	case TransportFailure:
		return "transport_failure"
	case InvalidRequest:
		return "invalid_request"
	case NotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error carries a user-facing message alongside the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error around err.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Transport wraps a network or decoding fault. The message is the raw
// error text so callers see exactly what went wrong.
func Transport(err error) *Error {
	return &Error{Kind: TransportFailure, Message: err.Error(), Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Status maps err to the HTTP status the API responds with. Upstream
// failures are reported in the body with 200 so clients only branch on
// the success flag.
func Status(err error) int {
	switch KindOf(err) {
	case InvalidRequest:
		return http.StatusBadRequest
	case NotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusOK
	}
}
