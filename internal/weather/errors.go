package weather

import (
	"errors"
	"fmt"
)

// ErrTransport marks failures where no HTTP response was received.
var ErrTransport = errors.New("report service unreachable")

// ErrInvalidID is returned before any request is made.
var ErrInvalidID = errors.New("invalid report id")

// StatusError is a non-2xx response from the report service.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("report service error: %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("report service error: %d", e.StatusCode)
}

// MalformedError is a 2xx response whose body does not match the report schema.
type MalformedError struct {
	// Info is the provider's own error message, if the stored report is a
	// provider error object.
	Info string
	Err  error
}

func (e *MalformedError) Error() string {
	if e.Info != "" {
		return "malformed report: " + e.Info
	}
	if e.Err != nil {
		return "malformed report: " + e.Err.Error()
	}
	return "malformed report"
}

func (e *MalformedError) Unwrap() error { return e.Err }
