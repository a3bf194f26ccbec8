package analysis

import (
	"errors"

	"github.com/sony/gobreaker"
)

// These errors never leave the adapter. They classify why a fallback was
// served and drive the reason label on logs and metrics.
var (
	ErrNoCredential      = errors.New("no model credential configured")
	ErrTransport         = errors.New("model call failed")
	ErrMalformedResponse = errors.New("malformed model response")
)

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrNoCredential):
		return "no_credential"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "unknown"
	}
}
