package tensor

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Shape lists concrete dimension sizes, outermost first. An empty shape is
// a scalar.
type Shape []int

// NumElements is the product of the dimensions; 1 for a scalar.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// MaxElements bounds the element count of any single buffer.
const MaxElements = 1 << 31

// Validate rejects non-positive dimensions and shapes holding more than
// MaxElements values.
func (s Shape) Validate() error {
	if i := slices.IndexFunc(s, func(d int) bool { return d <= 0 }); i >= 0 {
		return fmt.Errorf("dimension %d is %d, want > 0", i, s[i])
	}
	n := 1
	for _, d := range s {
		if d > MaxElements/n {
			return fmt.Errorf("shape %v exceeds %d elements", s, MaxElements)
		}
		n *= d
	}
	return nil
}

// Equal reports whether s and other have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns an independent copy.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

// Int64s converts to ONNX dims.
func (s Shape) Int64s() []int64 {
	dims := make([]int64, len(s))
	for i, d := range s {
		dims[i] = int64(d)
	}
	return dims
}

// String renders the shape as [d0 d1 ...].
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
