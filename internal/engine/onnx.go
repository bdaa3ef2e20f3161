//go:build onnx

package engine

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"modelbridge/pkg/types"
)

// onnxBuilt indicates this binary was compiled with ONNX Runtime support.
const onnxBuilt = true

var (
	ortOnce    sync.Once
	ortInitErr error
)

// initRuntime initializes the process-wide ONNX Runtime environment once.
func initRuntime(lib string) error {
	ortOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortInitErr = fmt.Errorf("%w: onnxruntime init: %v", ErrUnavailable, err)
		}
	})
	return ortInitErr
}

// ONNX runs ONNX models with a single float32 input and output.
type ONNX struct {
	lib string
}

// NewONNX returns an ONNX engine loading the runtime from lib (or the
// library's default search path when empty).
func NewONNX(lib string) *ONNX { return &ONNX{lib: lib} }

func (e *ONNX) Name() string { return "onnx" }

func (e *ONNX) NewSession(model []byte) (Session, error) {
	if err := initRuntime(e.lib); err != nil {
		return nil, err
	}
	inputs, outputs, err := ort.GetInputOutputInfoWithONNXData(model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedModel, err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("%w: want 1 input and 1 output, got %d and %d", ErrUnsupportedOp, len(inputs), len(outputs))
	}
	in, out := inputs[0], outputs[0]
	for _, info := range []ort.InputOutputInfo{in, out} {
		if info.OrtValueType != ort.ONNXTypeTensor || info.DataType != ort.TensorElementDataTypeFloat {
			return nil, fmt.Errorf("%w: %s is not a float32 tensor", ErrUnsupportedOp, info.Name)
		}
	}
	sess, err := ort.NewDynamicAdvancedSessionWithONNXData(model, []string{in.Name}, []string{out.Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrMalformedModel, err)
	}
	return &onnxSession{sess: sess, inShape: append([]int64(nil), in.Dimensions...)}, nil
}

type onnxSession struct {
	sess    *ort.DynamicAdvancedSession
	inShape []int64
}

func (s *onnxSession) InputShape() []int64 { return append([]int64(nil), s.inShape...) }

func (s *onnxSession) Run(in types.Tensor) (types.Tensor, error) {
	if s.sess == nil {
		return types.Tensor{}, ErrSessionClosed
	}
	shape, err := concreteShape(s.inShape, in)
	if err != nil {
		return types.Tensor{}, fmt.Errorf("onnx: %w", err)
	}
	input, err := ort.NewTensor(ort.NewShape(shape...), in.Values)
	if err != nil {
		return types.Tensor{}, fmt.Errorf("onnx input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := s.sess.Run([]ort.Value{input}, outputs); err != nil {
		return types.Tensor{}, fmt.Errorf("onnx run: %w", err)
	}
	defer func() {
		if outputs[0] != nil {
			_ = outputs[0].Destroy()
		}
	}()
	t, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return types.Tensor{}, fmt.Errorf("%w: output is %T", ErrUnsupportedOp, outputs[0])
	}
	return types.Tensor{
		Shape:  append([]int64(nil), t.GetShape()...),
		Values: append([]float32(nil), t.GetData()...),
	}, nil
}

func (s *onnxSession) Close() error {
	if s.sess == nil {
		return nil
	}
	err := s.sess.Destroy()
	s.sess = nil
	return err
}
