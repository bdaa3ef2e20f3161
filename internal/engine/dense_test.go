package engine

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelbridge/pkg/types"
)

// row builds a [1, n] input tensor.
func row(vals ...float32) types.Tensor {
	return types.Tensor{Shape: []int64{1, int64(len(vals))}, Values: vals}
}

func mustEncode(t *testing.T, m DenseModel) []byte {
	t.Helper()
	b, err := EncodeDense(m)
	require.NoError(t, err)
	return b
}

// 2 outputs x 3 inputs: out0 = x0+x1+x2, out1 = 2*x0 - x2 + 1
var sumModel = DenseModel{
	Inputs:  3,
	Outputs: 2,
	Weights: []float32{1, 1, 1, 2, 0, -1},
	Bias:    []float32{0, 1},
}

func TestDense_RunIdentity(t *testing.T) {
	s, err := Dense{}.NewSession(mustEncode(t, sumModel))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []int64{1, 3}, s.InputShape())
	out, err := s.Run(row(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, out.Shape)
	assert.InDeltaSlice(t, []float32{6, 0}, out.Values, 1e-6)
}

func TestDense_Activations(t *testing.T) {
	cases := []struct {
		act  Activation
		want []float32
	}{
		{ActReLU, []float32{0, 3}},
		{ActSigmoid, []float32{float32(1 / (1 + math.Exp(1))), float32(1 / (1 + math.Exp(-3)))}},
		{ActSoftmax, []float32{float32(math.Exp(-1) / (math.Exp(-1) + math.Exp(3))), float32(math.Exp(3) / (math.Exp(-1) + math.Exp(3)))}},
	}
	for _, c := range cases {
		m := DenseModel{Inputs: 1, Outputs: 2, Activation: c.act, Weights: []float32{-1, 3}, Bias: []float32{0, 0}}
		s, err := Dense{}.NewSession(mustEncode(t, m))
		require.NoError(t, err)
		out, err := s.Run(row(1))
		require.NoError(t, err)
		assert.InDeltaSlice(t, c.want, out.Values, 1e-6, "activation %d", c.act)
		require.NoError(t, s.Close())
	}
}

func TestDense_SessionErrors(t *testing.T) {
	good := mustEncode(t, sumModel)

	badMagic := append([]byte(nil), good...)
	copy(badMagic, "XXXX")

	badVersion := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(badVersion[4:8], 9)

	badAct := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(badAct[16:20], 42)

	zeroDims := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(zeroDims[8:12], 0)

	cases := []struct {
		name  string
		model []byte
		want  error
	}{
		{"short", []byte("DNSM"), ErrMalformedModel},
		{"text", []byte("this is not a model, just some text"), ErrMalformedModel},
		{"magic", badMagic, ErrMalformedModel},
		{"version", badVersion, ErrVersionMismatch},
		{"activation", badAct, ErrUnsupportedOp},
		{"dims", zeroDims, ErrMalformedModel},
		{"truncated", good[:len(good)-4], ErrMalformedModel},
		{"trailing", append(append([]byte(nil), good...), 0), ErrMalformedModel},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := Dense{}.NewSession(c.model)
			assert.Nil(t, s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, c.want), "got %v", err)
		})
	}
}

func TestDense_RunAfterClose(t *testing.T) {
	s, err := Dense{}.NewSession(mustEncode(t, sumModel))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	_, err = s.Run(row(1, 2, 3))
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestDense_RunWrongLength(t *testing.T) {
	s, err := Dense{}.NewSession(mustEncode(t, sumModel))
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Run(row(1))
	assert.Error(t, err)
}

func TestDense_RunChecksShape(t *testing.T) {
	s, err := Dense{}.NewSession(mustEncode(t, sumModel))
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Run(types.Tensor{Shape: []int64{3, 1}, Values: []float32{1, 2, 3}})
	assert.Error(t, err)
	_, err = s.Run(types.Tensor{Shape: []int64{1, 3}, Values: []float32{1, 2}})
	assert.Error(t, err)
}

func TestConcreteShape(t *testing.T) {
	cases := []struct {
		name     string
		declared []int64
		in       types.Tensor
		want     []int64
		ok       bool
	}{
		{"static", []int64{1, 3}, types.Tensor{Shape: []int64{1, 3}, Values: make([]float32, 3)}, []int64{1, 3}, true},
		{"one dynamic", []int64{-1, 3}, types.Tensor{Shape: []int64{4, 3}, Values: make([]float32, 12)}, []int64{4, 3}, true},
		{"all dynamic", []int64{-1, -1}, types.Tensor{Shape: []int64{2, 3}, Values: make([]float32, 6)}, []int64{2, 3}, true},
		{"rank", []int64{-1, 3}, types.Tensor{Shape: []int64{3}, Values: make([]float32, 3)}, nil, false},
		{"static mismatch", []int64{1, 3}, types.Tensor{Shape: []int64{1, 4}, Values: make([]float32, 4)}, nil, false},
		{"count", []int64{-1, -1}, types.Tensor{Shape: []int64{2, 3}, Values: make([]float32, 5)}, nil, false},
		{"overflow", []int64{-1, -1}, types.Tensor{Shape: []int64{3, 0x5555555555555556}, Values: make([]float32, 6)}, nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := concreteShape(c.declared, c.in)
			if !c.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
			got[0] = 99
			assert.NotEqual(t, int64(99), c.in.Shape[0], "result must not alias the input shape")
		})
	}
}

func TestEncodeDense_Validates(t *testing.T) {
	_, err := EncodeDense(DenseModel{Inputs: 0, Outputs: 1})
	assert.Error(t, err)
	_, err = EncodeDense(DenseModel{Inputs: 2, Outputs: 1, Weights: []float32{1}, Bias: []float32{0}})
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	e, err := Lookup("", Options{})
	require.NoError(t, err)
	assert.Equal(t, "dense", e.Name())

	e, err = Lookup(" Dense ", Options{})
	require.NoError(t, err)
	assert.Equal(t, "dense", e.Name())

	e, err = Lookup("onnx", Options{})
	require.NoError(t, err)
	assert.Equal(t, "onnx", e.Name())

	_, err = Lookup("tflite", Options{})
	assert.Error(t, err)

	assert.Contains(t, Available(), Default)
}
