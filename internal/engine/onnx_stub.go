//go:build !onnx

package engine

import "fmt"

// This file provides a no-CGO stub for the ONNX engine. It is compiled when
// the 'onnx' build tag is NOT set, keeping default builds and CI CGO-free.

const onnxBuilt = false

var errONNXNotBuilt = fmt.Errorf("%w: onnx support not built (missing 'onnx' build tag)", ErrUnavailable)

// ONNX is a stub that refuses to build sessions without the 'onnx' tag.
type ONNX struct {
	lib string
}

func NewONNX(lib string) *ONNX { return &ONNX{lib: lib} }

func (e *ONNX) Name() string { return "onnx" }

func (e *ONNX) NewSession([]byte) (Session, error) {
	return nil, errONNXNotBuilt
}
