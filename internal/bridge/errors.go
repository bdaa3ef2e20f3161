package bridge

import (
	"errors"
	"net/http"

	"modelbridge/internal/loader"
)

// Kind classifies a failed call.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindIOFailure
	KindEmpty
	KindSession
	KindShapeMismatch
	KindEngineFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindIOFailure:
		return "io_failure"
	case KindEmpty:
		return "empty"
	case KindSession:
		return "session"
	case KindShapeMismatch:
		return "shape_mismatch"
	case KindEngineFailure:
		return "engine_failure"
	default:
		return "unknown"
	}
}

// Failure is the rejection value delivered to a Completion.
type Failure struct {
	Kind    Kind
	Message string
	Cause   error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Cause }

// StatusCode maps the failure kind to an HTTP status.
func (f *Failure) StatusCode() int {
	switch f.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindEmpty, KindSession:
		return http.StatusUnprocessableEntity
	case KindShapeMismatch:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AsFailure returns the Failure in err's chain, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// kindOf returns the failure kind of err, or 0 when err is not a Failure.
func kindOf(err error) Kind {
	if f, ok := AsFailure(err); ok {
		return f.Kind
	}
	return 0
}

// fromLoadError translates a loader error into the taxonomy, keeping the
// loader error (and the system error under it) as the cause.
func fromLoadError(err error) *Failure {
	var le *loader.LoadError
	if !errors.As(err, &le) {
		return &Failure{Kind: KindIOFailure, Message: err.Error(), Cause: err}
	}
	k := KindIOFailure
	switch le.Kind {
	case loader.KindNotFound:
		k = KindNotFound
	case loader.KindEmpty:
		k = KindEmpty
	}
	return &Failure{Kind: k, Message: le.Error(), Cause: err}
}

// ErrInvalidRequest is returned by NewRequest for inconsistent input.
var ErrInvalidRequest = errors.New("invalid request")

// IsInvalidRequest reports whether err came from request validation.
func IsInvalidRequest(err error) bool { return errors.Is(err, ErrInvalidRequest) }
