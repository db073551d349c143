package tensor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// Raw is a flat little-endian value buffer with a concrete shape.
// Initializers and source artifact weights are stored as Raw.
type Raw struct {
	shape Shape
	dtype DataType
	data  []byte
}

// NewRaw allocates a zeroed buffer.
func NewRaw(shape Shape, dtype DataType) (*Raw, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Raw{
		shape: shape.Clone(),
		dtype: dtype,
		data:  make([]byte, shape.NumElements()*dtype.Size()),
	}, nil
}

// FromBytes wraps existing little-endian data. The byte length must match
// the shape and element type exactly.
func FromBytes(shape Shape, dtype DataType, data []byte) (*Raw, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	want := shape.NumElements() * dtype.Size()
	if len(data) != want {
		return nil, fmt.Errorf("data length %d does not match shape %v of %s (want %d bytes)", len(data), shape, dtype, want)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Raw{shape: shape.Clone(), dtype: dtype, data: buf}, nil
}

// FromFloat32 encodes values into a floating point buffer of the given type.
func FromFloat32(shape Shape, dtype DataType, values []float32) (*Raw, error) {
	if !dtype.IsFloat() {
		return nil, fmt.Errorf("cannot encode float values as %s", dtype)
	}
	if len(values) != shape.NumElements() {
		return nil, fmt.Errorf("got %d values for shape %v (want %d)", len(values), shape, shape.NumElements())
	}
	r, err := NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		switch dtype {
		case Float32:
			binary.LittleEndian.PutUint32(r.data[i*4:], math.Float32bits(v))
		case Float64:
			binary.LittleEndian.PutUint64(r.data[i*8:], math.Float64bits(float64(v)))
		case Float16:
			binary.LittleEndian.PutUint16(r.data[i*2:], float16.Fromfloat32(v).Bits())
		}
	}
	return r, nil
}

// FromInt64 encodes values into an int64 buffer.
func FromInt64(shape Shape, values []int64) (*Raw, error) {
	if len(values) != shape.NumElements() {
		return nil, fmt.Errorf("got %d values for shape %v (want %d)", len(values), shape, shape.NumElements())
	}
	r, err := NewRaw(shape, Int64)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		binary.LittleEndian.PutUint64(r.data[i*8:], uint64(v)) //nolint:gosec // G115: bit-preserving reinterpretation.
	}
	return r, nil
}

// Shape returns the buffer's dimensions.
func (r *Raw) Shape() Shape {
	return r.shape.Clone()
}

// DType returns the element type.
func (r *Raw) DType() DataType {
	return r.dtype
}

// NumElements returns the number of stored values.
func (r *Raw) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the size of the buffer in bytes.
func (r *Raw) ByteSize() int {
	return len(r.data)
}

// Data returns the underlying bytes. Callers must not modify them.
func (r *Raw) Data() []byte {
	return r.data
}

// Float32s decodes a floating point buffer into float32 values.
func (r *Raw) Float32s() ([]float32, error) {
	n := r.NumElements()
	out := make([]float32, n)
	switch r.dtype {
	case Float32:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(r.data[i*4:]))
		}
	case Float64:
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(r.data[i*8:])))
		}
	case Float16:
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(r.data[i*2:])).Float32()
		}
	default:
		return nil, fmt.Errorf("cannot decode %s buffer as float32", r.dtype)
	}
	return out, nil
}

// Int64s decodes an int64 buffer.
func (r *Raw) Int64s() ([]int64, error) {
	if r.dtype != Int64 {
		return nil, fmt.Errorf("cannot decode %s buffer as int64", r.dtype)
	}
	out := make([]int64, r.NumElements())
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(r.data[i*8:])) //nolint:gosec // G115: bit-preserving reinterpretation.
	}
	return out, nil
}

// Equal reports whether two buffers hold the same type, shape and bytes.
func (r *Raw) Equal(other *Raw) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.dtype == other.dtype && r.shape.Equal(other.shape) && bytes.Equal(r.data, other.data)
}
