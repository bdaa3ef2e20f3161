package loader

import (
	"errors"
	"fmt"
)

// Kind classifies a load failure.
type Kind int

const (
	// KindNotFound: the path does not resolve to a regular file.
	KindNotFound Kind = iota + 1
	// KindIOFailure: open, stat, map or read failed.
	KindIOFailure
	// KindEmpty: the file exists but has zero length.
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindIOFailure:
		return "io_failure"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// LoadError is returned by Loader.Load. Err, when set, is the underlying
// system error and is reachable through errors.Unwrap.
type LoadError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return "model not found: " + e.Path
	case KindEmpty:
		return "model file is empty: " + e.Path
	default:
		if e.Err != nil {
			return fmt.Sprintf("model io failure: %s: %v", e.Path, e.Err)
		}
		return "model io failure: " + e.Path
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

func kindOf(err error) (Kind, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}

// IsNotFound reports whether err is a KindNotFound load error.
func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsEmpty reports whether err is a KindEmpty load error.
func IsEmpty(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindEmpty
}

// IsIOFailure reports whether err is a KindIOFailure load error.
func IsIOFailure(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindIOFailure
}
