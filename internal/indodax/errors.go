// internal/indodax/errors.go
package indodax

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials means the client was constructed without an
// API key or secret. This is a configuration fault and should stop
// startup; it is never returned by a live call.
var ErrMissingCredentials = errors.New("indodax: missing api key or secret")

// TransportError wraps a network-level failure (connection, timeout)
// reaching the exchange.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("indodax: %s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExchangeError means the exchange answered but reported failure
// (success != 1). Message carries the exchange's own error text.
type ExchangeError struct {
	Op      string
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("indodax: %s: exchange error: %s", e.Op, e.Message)
}

// InputError is a validation failure detected before any network call.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "indodax: invalid input: " + e.Reason
}

// NewInputError builds an InputError from a format string.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}
