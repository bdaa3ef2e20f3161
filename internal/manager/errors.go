package manager

import (
	"context"
	"errors"
	"net/http"

	"modelbridge/internal/bridge"
)

// statusCoder is implemented by errors that carry their own HTTP status.
type statusCoder interface {
	error
	StatusCode() int
}

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ model string }

func (e tooBusyError) Error() string { return "too busy: " + e.model }

func (e tooBusyError) StatusCode() int { return http.StatusTooManyRequests }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

// Classify maps an error returned by Run to an HTTP-equivalent status code
// and a failure kind name. Transports without HTTP (NATS) still report the
// code so clients share one table.
func Classify(err error) (int, string) {
	if f, ok := bridge.AsFailure(err); ok {
		return f.StatusCode(), f.Kind.String()
	}
	switch {
	case bridge.IsInvalidRequest(err):
		return http.StatusBadRequest, "invalid_request"
	case IsTooBusy(err):
		return http.StatusTooManyRequests, "too_busy"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), ""
	}
	return http.StatusInternalServerError, ""
}
