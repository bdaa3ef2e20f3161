// Package engine defines the inference collaborator used by the bridge and
// ships its implementations.
//
//   - dense: built-in pure Go engine for single-layer dense models (.dmod).
//     Always available; weights are read from the model bytes in place.
//   - onnx: ONNX Runtime via github.com/yalue/onnxruntime_go. Enabled with
//     `-tags=onnx` (requires CGO and the onnxruntime shared library). Without
//     the tag a stub is compiled whose sessions fail with ErrUnavailable.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"modelbridge/pkg/types"
)

// Session construction and run errors. Engines wrap one of these so callers
// can classify failures with errors.Is.
var (
	ErrMalformedModel  = errors.New("malformed model")
	ErrUnsupportedOp   = errors.New("unsupported operation")
	ErrVersionMismatch = errors.New("model version mismatch")
	ErrUnavailable     = errors.New("engine unavailable")
	ErrSessionClosed   = errors.New("session closed")
)

// Engine builds inference sessions over serialized model bytes.
type Engine interface {
	// Name identifies the engine (e.g. "dense").
	Name() string
	// NewSession parses model and prepares it for inference. The engine may
	// reference model until the session is closed, never after.
	NewSession(model []byte) (Session, error)
}

// Session is a prepared model. Sessions are not safe for concurrent use.
type Session interface {
	// InputShape is the expected input shape; -1 marks a dynamic dimension.
	InputShape() []int64
	// Run executes the model on input. input.Shape is concrete: every
	// dynamic dimension of InputShape has been replaced by its actual size.
	Run(input types.Tensor) (types.Tensor, error)
	// Close releases the session. It must be called exactly once.
	Close() error
}

// Options carries engine construction parameters.
type Options struct {
	// ONNXLibrary is the path to the onnxruntime shared library (onnx only).
	ONNXLibrary string
}

// Default is the engine used when none is configured.
const Default = "dense"

// Lookup returns the engine registered under name.
func Lookup(name string, opts Options) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Default:
		return Dense{}, nil
	case "onnx":
		return NewONNX(opts.ONNXLibrary), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want dense or onnx)", name)
	}
}

// Available lists the engines usable in this build.
func Available() []string {
	if onnxBuilt {
		return []string{Default, "onnx"}
	}
	return []string{Default}
}

// concreteShape checks in against a declared input shape and returns a copy
// of in.Shape for the runtime. Dims of -1 in declared accept any positive
// size; the value count must match the product of in.Shape.
func concreteShape(declared []int64, in types.Tensor) ([]int64, error) {
	if len(in.Shape) != len(declared) {
		return nil, fmt.Errorf("input rank %d, model expects %v", len(in.Shape), declared)
	}
	for i, d := range in.Shape {
		if d <= 0 || (declared[i] >= 0 && declared[i] != d) {
			return nil, fmt.Errorf("input shape %v, model expects %v", in.Shape, declared)
		}
	}
	if n := in.NumElements(); n < 0 || n != int64(len(in.Values)) {
		return nil, fmt.Errorf("input shape %v does not hold %d values", in.Shape, len(in.Values))
	}
	return append([]int64(nil), in.Shape...), nil
}
