package nn

import (
	"fmt"

	"github.com/pashuvision/modelport/internal/tensor"
)

// Parameter is a named weight tensor of a layer.
type Parameter struct {
	name  string
	shape tensor.Shape
	value *tensor.Raw
}

// NewParameter creates a parameter. Its shape is fixed to the value's shape.
func NewParameter(name string, value *tensor.Raw) *Parameter {
	return &Parameter{name: name, shape: value.Shape(), value: value}
}

// Name returns the parameter name local to its layer (e.g. "weight").
func (p *Parameter) Name() string {
	return p.name
}

// Shape returns the expected shape.
func (p *Parameter) Shape() tensor.Shape {
	return p.shape.Clone()
}

// Value returns the current value.
func (p *Parameter) Value() *tensor.Raw {
	return p.value
}

// Load replaces the value. The shape must match. Float16 and float64
// values are converted to float32.
func (p *Parameter) Load(raw *tensor.Raw) error {
	if !raw.Shape().Equal(p.shape) {
		return fmt.Errorf("%w: %s is %v, want %v", ErrWeightShape, p.name, raw.Shape(), p.shape)
	}
	switch {
	case raw.DType() == tensor.Float32:
		p.value = raw
	case raw.DType().IsFloat():
		values, err := raw.Float32s()
		if err != nil {
			return err
		}
		conv, err := tensor.FromFloat32(raw.Shape(), tensor.Float32, values)
		if err != nil {
			return err
		}
		p.value = conv
	default:
		return fmt.Errorf("%w: %s has dtype %s, want a float type", ErrWeightShape, p.name, raw.DType())
	}
	return nil
}
