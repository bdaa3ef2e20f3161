package bridge

import (
	"fmt"
	"strings"

	"modelbridge/pkg/types"
)

// Request is an immutable inference request: a model path and an input
// tensor. Build it with NewRequest.
type Request struct {
	path  string
	input types.Tensor
}

// NewRequest validates and copies its arguments. An empty shape defaults
// to [1, len(values)], the flat row layout hosts send for a single sample.
func NewRequest(path string, input types.Tensor) (Request, error) {
	if strings.TrimSpace(path) == "" {
		return Request{}, fmt.Errorf("%w: model path is required", ErrInvalidRequest)
	}
	in := input.Clone()
	if len(in.Shape) == 0 {
		in.Shape = []int64{1, int64(len(in.Values))}
	}
	n := in.NumElements()
	if n <= 0 {
		return Request{}, fmt.Errorf("%w: shape %v has non-positive dimensions or too many elements", ErrInvalidRequest, in.Shape)
	}
	if n != int64(len(in.Values)) {
		return Request{}, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrInvalidRequest, in.Shape, n, len(in.Values))
	}
	return Request{path: path, input: in}, nil
}

// ModelPath returns the model file path.
func (r Request) ModelPath() string { return r.path }

// Input returns a copy of the input tensor.
func (r Request) Input() types.Tensor { return r.input.Clone() }
