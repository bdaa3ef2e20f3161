package engine

import (
	"encoding/binary"
	"fmt"
	"math"

	"modelbridge/pkg/types"
)

// Dense model file layout (little endian):
//
//	0x00 magic "DNSM"
//	0x04 version    u32
//	0x08 inputs  N  u32
//	0x0C outputs M  u32
//	0x10 activation u32
//	0x14 weights    M*N f32, row-major (one row per output)
//	     bias       M f32
const (
	denseMagic      = "DNSM"
	DenseVersion    = 1
	denseHeaderSize = 20
	// maxDenseElems caps N*M so header values cannot overflow offsets.
	maxDenseElems = 1 << 28
)

// Activation is applied to the dense layer output.
type Activation uint32

const (
	ActIdentity Activation = iota
	ActReLU
	ActSigmoid
	ActSoftmax
)

// DenseModel is the decoded form of a .dmod file, used to write models.
type DenseModel struct {
	Inputs     int
	Outputs    int
	Activation Activation
	// Weights has Outputs rows of Inputs values.
	Weights []float32
	Bias    []float32
}

// EncodeDense serializes m in the dense model format.
func EncodeDense(m DenseModel) ([]byte, error) {
	if m.Inputs <= 0 || m.Outputs <= 0 {
		return nil, fmt.Errorf("dense: inputs and outputs must be positive")
	}
	if len(m.Weights) != m.Inputs*m.Outputs || len(m.Bias) != m.Outputs {
		return nil, fmt.Errorf("dense: got %d weights and %d biases for %dx%d", len(m.Weights), len(m.Bias), m.Outputs, m.Inputs)
	}
	buf := make([]byte, denseHeaderSize+4*(len(m.Weights)+len(m.Bias)))
	copy(buf[0:4], denseMagic)
	binary.LittleEndian.PutUint32(buf[4:8], DenseVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(m.Inputs))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(m.Outputs))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(m.Activation))
	off := denseHeaderSize
	for _, v := range m.Weights {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range m.Bias {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	return buf, nil
}

// Dense is the built-in engine for single-layer dense models.
type Dense struct{}

func (Dense) Name() string { return "dense" }

func (Dense) NewSession(model []byte) (Session, error) {
	if len(model) < denseHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformedModel, len(model))
	}
	if string(model[0:4]) != denseMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformedModel, model[0:4])
	}
	if v := binary.LittleEndian.Uint32(model[4:8]); v != DenseVersion {
		return nil, fmt.Errorf("%w: got version %d, want %d", ErrVersionMismatch, v, DenseVersion)
	}
	n := int64(binary.LittleEndian.Uint32(model[8:12]))
	m := int64(binary.LittleEndian.Uint32(model[12:16]))
	if n == 0 || m == 0 || n*m > maxDenseElems {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrMalformedModel, m, n)
	}
	act := Activation(binary.LittleEndian.Uint32(model[16:20]))
	if act > ActSoftmax {
		return nil, fmt.Errorf("%w: activation %d", ErrUnsupportedOp, act)
	}
	want := denseHeaderSize + 4*(n*m+m)
	if int64(len(model)) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d for %dx%d", ErrMalformedModel, len(model), want, m, n)
	}
	return &denseSession{
		weights: model[denseHeaderSize : denseHeaderSize+4*n*m],
		bias:    model[denseHeaderSize+4*n*m:],
		inputs:  int(n),
		outputs: int(m),
		act:     act,
	}, nil
}

// denseSession reads weights straight from the model bytes.
type denseSession struct {
	weights []byte
	bias    []byte
	inputs  int
	outputs int
	act     Activation
}

func (s *denseSession) InputShape() []int64 { return []int64{1, int64(s.inputs)} }

func f32at(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
}

func (s *denseSession) Run(input types.Tensor) (types.Tensor, error) {
	if s.weights == nil {
		return types.Tensor{}, ErrSessionClosed
	}
	if _, err := concreteShape(s.InputShape(), input); err != nil {
		return types.Tensor{}, fmt.Errorf("dense: %w", err)
	}
	values := input.Values
	out := make([]float32, s.outputs)
	for j := 0; j < s.outputs; j++ {
		acc := float64(f32at(s.bias, j))
		row := j * s.inputs
		for i, x := range values {
			acc += float64(f32at(s.weights, row+i)) * float64(x)
		}
		out[j] = float32(acc)
	}
	activate(s.act, out)
	return types.Tensor{Shape: []int64{1, int64(s.outputs)}, Values: out}, nil
}

func (s *denseSession) Close() error {
	s.weights = nil
	s.bias = nil
	return nil
}

func activate(act Activation, v []float32) {
	switch act {
	case ActReLU:
		for i := range v {
			if v[i] < 0 {
				v[i] = 0
			}
		}
	case ActSigmoid:
		for i := range v {
			v[i] = float32(1 / (1 + math.Exp(-float64(v[i]))))
		}
	case ActSoftmax:
		hi := v[0]
		for _, x := range v[1:] {
			if x > hi {
				hi = x
			}
		}
		var sum float64
		for i := range v {
			e := math.Exp(float64(v[i] - hi))
			v[i] = float32(e)
			sum += e
		}
		for i := range v {
			v[i] = float32(float64(v[i]) / sum)
		}
	}
}
