package nn

import (
	"fmt"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/serialization"
	"github.com/pashuvision/modelport/internal/tensor"
)

// Flatten collapses every axis after the batch axis.
//
// Input shape: [batch, d1, ..., dn]
// Output shape: [batch, d1 * ... * dn]
type Flatten struct{}

// NewFlatten creates a Flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Spec describes the layer.
func (f *Flatten) Spec() serialization.LayerSpec {
	return serialization.LayerSpec{Type: "Flatten"}
}

// Parameters returns nil.
func (f *Flatten) Parameters() []*Parameter {
	return nil
}

// Trace emits Flatten with axis 1.
func (f *Flatten) Trace(t *Tracer, scope, input string) (string, error) {
	shape := t.Shape(input)
	if len(shape) < 2 {
		return "", fmt.Errorf("%w: Flatten needs rank >= 2, got shape %v", ErrUnsupportedDim, shape)
	}
	features := tensor.Shape(shape[1:]).NumElements()
	return t.Op(scope, "Flatten", []string{input}, tensor.Shape{shape[0], features},
		graph.IntAttr("axis", 1),
	), nil
}
