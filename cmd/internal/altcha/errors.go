package altcha

import (
	"errors"
	"fmt"
)

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	// ErrMalformed covers structurally invalid input: bad base64/JSON, wrong arity or types.
	ErrMalformed = errors.New("malformed")
	// ErrSignatureMismatch means a puzzle or token tag was not minted by this server.
	ErrSignatureMismatch = errors.New("signature mismatch")
	// ErrProofMismatch means the submitted number does not hash to the challenge.
	ErrProofMismatch = errors.New("proof of work mismatch")
	// ErrExpired means a session credential is past its expiry.
	ErrExpired = errors.New("expired")
	// ErrBindingMismatch means a credential was presented from another ip or domain.
	ErrBindingMismatch = errors.New("binding mismatch")
	// ErrInvalidBinding means an ip or domain cannot be encoded into a credential.
	ErrInvalidBinding = errors.New("invalid binding")
	// ErrNoSolution means the solver exhausted the puzzle range.
	ErrNoSolution = errors.New("no solution")
	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// OpError is a typed operation error with a stable Op + Kind contract for callers/tests.
// Msg is server-side diagnostic context; it must never be written to a response.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

func opErr(op string, kind error, format string, args ...any) error {
	return OpError{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Reason maps err to a short label for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature"
	case errors.Is(err, ErrProofMismatch):
		return "proof"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrBindingMismatch):
		return "binding"
	case errors.Is(err, ErrInvalidBinding):
		return "invalid_binding"
	default:
		return "internal"
	}
}
