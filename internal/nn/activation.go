package nn

import (
	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/serialization"
)

// ReLU applies max(0, x) element-wise.
type ReLU struct{}

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Spec describes the layer.
func (r *ReLU) Spec() serialization.LayerSpec {
	return serialization.LayerSpec{Type: "ReLU"}
}

// Parameters returns nil (ReLU has no weights).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

// Trace emits Relu.
func (r *ReLU) Trace(t *Tracer, scope, input string) (string, error) {
	return t.Op(scope, "Relu", []string{input}, t.Shape(input)), nil
}

// Sigmoid applies 1 / (1 + exp(-x)) element-wise.
type Sigmoid struct{}

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

// Spec describes the layer.
func (s *Sigmoid) Spec() serialization.LayerSpec {
	return serialization.LayerSpec{Type: "Sigmoid"}
}

// Parameters returns nil.
func (s *Sigmoid) Parameters() []*Parameter {
	return nil
}

// Trace emits Sigmoid.
func (s *Sigmoid) Trace(t *Tracer, scope, input string) (string, error) {
	return t.Op(scope, "Sigmoid", []string{input}, t.Shape(input)), nil
}

// Softmax normalizes the last axis into a probability distribution.
type Softmax struct{}

// NewSoftmax creates a Softmax over the last axis.
func NewSoftmax() *Softmax {
	return &Softmax{}
}

// Spec describes the layer.
func (s *Softmax) Spec() serialization.LayerSpec {
	return serialization.LayerSpec{Type: "Softmax"}
}

// Parameters returns nil.
func (s *Softmax) Parameters() []*Parameter {
	return nil
}

// Trace emits Softmax with axis set to the last dimension.
func (s *Softmax) Trace(t *Tracer, scope, input string) (string, error) {
	shape := t.Shape(input)
	return t.Op(scope, "Softmax", []string{input}, shape,
		graph.IntAttr("axis", int64(len(shape)-1)),
	), nil
}
