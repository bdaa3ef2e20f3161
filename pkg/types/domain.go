package types

import "math"

// Model represents a model artifact discovered on disk.
type Model struct {
	// Stable identifier for the model (the file name).
	// example: imu-reps.dmod
	ID string `json:"id" example:"imu-reps.dmod"`
	// Human-friendly name.
	// example: imu-reps
	Name string `json:"name" example:"imu-reps"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/imu-reps.dmod
	Path string `json:"path" example:"/home/user/models/imu-reps.dmod"`
	// Serialization format inferred from the extension (dense, onnx, tflite).
	// example: dense
	Format string `json:"format" example:"dense"`
	// File size in bytes.
	// example: 4116
	SizeBytes int64 `json:"size_bytes" example:"4116"`
}

// Tensor is a dense float32 tensor: a shape and its row-major values.
type Tensor struct {
	// Dimensions, outermost first.
	// example: [1,6]
	Shape []int64 `json:"shape" example:"1,6"`
	// Row-major values; length equals the product of Shape.
	Values []float32 `json:"values"`
}

// NumElements returns the product of the shape dimensions, or -1 if any
// dimension is not positive or the product overflows int64.
func (t Tensor) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		if d <= 0 || n > math.MaxInt64/d {
			return -1
		}
		n *= d
	}
	return n
}

// Clone returns a deep copy of t.
func (t Tensor) Clone() Tensor {
	return Tensor{
		Shape:  append([]int64(nil), t.Shape...),
		Values: append([]float32(nil), t.Values...),
	}
}
