package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
		{Bool, 1},
		{Float16, 2},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestDataTypeONNXCodes(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64, Uint8, Bool, Float16} {
		got, err := FromONNXCode(dt.ONNXCode())
		require.NoError(t, err)
		assert.Equal(t, dt, got)

		parsed, ok := ParseDataType(dt.String())
		require.True(t, ok)
		assert.Equal(t, dt, parsed)
	}

	_, err := FromONNXCode(8) // string tensors
	assert.Error(t, err)
	assert.Equal(t, int32(1), Float32.ONNXCode())
	assert.Equal(t, int32(7), Int64.ONNXCode())
}

func TestShape(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.NoError(t, s.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Equal(t, []int64{2, 3, 4}, s.Int64s())
	assert.Equal(t, "[2 3 4]", s.String())

	clone := s.Clone()
	clone[0] = 9
	assert.Equal(t, 2, s[0])
	assert.False(t, s.Equal(clone))
}

func TestShapeValidateOverflow(t *testing.T) {
	assert.Error(t, Shape{3, 1 << 61}.Validate())
	assert.Error(t, Shape{1 << 20, 1 << 20}.Validate())
	assert.NoError(t, Shape{1 << 15, 1 << 15}.Validate())

	_, err := NewRaw(Shape{1 << 40, 1 << 40}, Float32)
	assert.Error(t, err)
	_, err = FromBytes(Shape{4, 1 << 62}, Uint8, make([]byte, 16))
	assert.Error(t, err)
}

func TestRawFloat32(t *testing.T) {
	values := []float32{1, -2.5, 3.25, 0, 7, 8}
	r, err := FromFloat32(Shape{2, 3}, Float32, values)
	require.NoError(t, err)
	assert.Equal(t, 24, r.ByteSize())
	assert.Equal(t, 6, r.NumElements())

	got, err := r.Float32s()
	require.NoError(t, err)
	assert.Equal(t, values, got)

	_, err = r.Int64s()
	assert.Error(t, err)
}

func TestRawFloat16(t *testing.T) {
	values := []float32{0.5, -1, 2, 1024}
	r, err := FromFloat32(Shape{4}, Float16, values)
	require.NoError(t, err)
	assert.Equal(t, 8, r.ByteSize())

	got, err := r.Float32s()
	require.NoError(t, err)
	assert.Equal(t, values, got) // all values are exactly representable in half precision
}

func TestRawInt64(t *testing.T) {
	r, err := FromInt64(Shape{3}, []int64{-1, 0, 1 << 40})
	require.NoError(t, err)
	got, err := r.Int64s()
	require.NoError(t, err)
	assert.Equal(t, []int64{-1, 0, 1 << 40}, got)
}

func TestRawErrors(t *testing.T) {
	_, err := FromFloat32(Shape{2, 2}, Float32, []float32{1, 2, 3})
	assert.Error(t, err)

	_, err = FromFloat32(Shape{1}, Int64, []float32{1})
	assert.Error(t, err)

	_, err = FromBytes(Shape{2}, Float32, make([]byte, 7))
	assert.Error(t, err)

	_, err = NewRaw(Shape{0, 3}, Float32)
	assert.Error(t, err)
}

func TestRawEqual(t *testing.T) {
	a, err := FromFloat32(Shape{2}, Float32, []float32{1, 2})
	require.NoError(t, err)
	b, err := FromBytes(Shape{2}, Float32, a.Data())
	require.NoError(t, err)
	c, err := FromFloat32(Shape{2}, Float32, []float32{1, 3})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}
