package nn

import (
	"math"
	"math/rand"

	"github.com/pashuvision/modelport/internal/tensor"
)

// Xavier returns a float32 tensor drawn from
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
func Xavier(fanIn, fanOut int, shape tensor.Shape) *tensor.Raw {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	values := make([]float32, shape.NumElements())
	for i := range values {
		//nolint:gosec // Weight initialization is not security-sensitive.
		values[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}
	return mustFloat32(shape, values)
}

// Zeros returns a float32 tensor of zeros.
func Zeros(shape tensor.Shape) *tensor.Raw {
	return mustFloat32(shape, make([]float32, shape.NumElements()))
}

// Ones returns a float32 tensor of ones.
func Ones(shape tensor.Shape) *tensor.Raw {
	values := make([]float32, shape.NumElements())
	for i := range values {
		values[i] = 1
	}
	return mustFloat32(shape, values)
}

func mustFloat32(shape tensor.Shape, values []float32) *tensor.Raw {
	raw, err := tensor.FromFloat32(shape, tensor.Float32, values)
	if err != nil {
		panic(err)
	}
	return raw
}
