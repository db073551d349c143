package nn

import (
	"fmt"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/serialization"
	"github.com/pashuvision/modelport/internal/tensor"
)

// Linear is a fully connected layer: y = x @ W.T + b.
//
// Weight shape: [out_features, in_features]
// Bias shape: [out_features]
//
// Traces to a Gemm node with transB=1.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter
	bias        *Parameter
}

// NewLinear creates a linear layer with Xavier-initialized weights and zero
// bias.
//
// Panics if inFeatures or outFeatures is not positive.
func NewLinear(inFeatures, outFeatures int, bias bool) *Linear {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("Linear: features must be positive, got %d -> %d", inFeatures, outFeatures))
	}
	l := &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight: NewParameter("weight",
			Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures})),
	}
	if bias {
		l.bias = NewParameter("bias", Zeros(tensor.Shape{outFeatures}))
	}
	return l
}

// Spec describes the layer.
func (l *Linear) Spec() serialization.LayerSpec {
	return serialization.LayerSpec{Type: "Linear", Params: map[string]float64{
		"in_features":  float64(l.inFeatures),
		"out_features": float64(l.outFeatures),
		"bias":         boolParam(l.bias != nil),
	}}
}

// Parameters returns weight and, if present, bias.
func (l *Linear) Parameters() []*Parameter {
	if l.bias == nil {
		return []*Parameter{l.weight}
	}
	return []*Parameter{l.weight, l.bias}
}

// Trace emits Gemm. The input must be [batch, in_features].
func (l *Linear) Trace(t *Tracer, scope, input string) (string, error) {
	shape := t.Shape(input)
	if err := expectRank(shape, 2); err != nil {
		return "", err
	}
	if shape[1] != l.inFeatures {
		return "", fmt.Errorf("%w: Linear expects %d input features, got %d", ErrShapeMismatch, l.inFeatures, shape[1])
	}

	inputs := []string{input, t.Param(scope, l.weight)}
	if l.bias != nil {
		inputs = append(inputs, t.Param(scope, l.bias))
	}
	return t.Op(scope, "Gemm", inputs, tensor.Shape{shape[0], l.outFeatures},
		graph.FloatAttr("alpha", 1),
		graph.FloatAttr("beta", 1),
		graph.IntAttr("transB", 1),
	), nil
}

func expectRank(shape tensor.Shape, rank int) error {
	if len(shape) != rank {
		return fmt.Errorf("%w: expected rank %d, got shape %v", ErrUnsupportedDim, rank, shape)
	}
	return nil
}

func boolParam(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
