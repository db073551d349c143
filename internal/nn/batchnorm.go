package nn

import (
	"fmt"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/serialization"
	"github.com/pashuvision/modelport/internal/tensor"
)

// BatchNorm2d normalizes each channel of a [batch, C, H, W] input.
//
// In inference mode it uses the running statistics:
//
//	y = (x - running_mean) / sqrt(running_var + eps) * weight + bias
//
// Batch statistics cannot be expressed as a static graph, so tracing in
// training mode fails with ErrTrainingMode.
type BatchNorm2d struct {
	mode

	numFeatures int
	eps         float64
	momentum    float64

	weight      *Parameter
	bias        *Parameter
	runningMean *Parameter
	runningVar  *Parameter
}

// NewBatchNorm2d creates a BatchNorm2d layer with unit scale, zero shift
// and identity running statistics.
func NewBatchNorm2d(numFeatures int, eps, momentum float64) *BatchNorm2d {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("BatchNorm2d: num_features must be positive, got %d", numFeatures))
	}
	shape := tensor.Shape{numFeatures}
	return &BatchNorm2d{
		numFeatures: numFeatures,
		eps:         eps,
		momentum:    momentum,
		weight:      NewParameter("weight", Ones(shape)),
		bias:        NewParameter("bias", Zeros(shape)),
		runningMean: NewParameter("running_mean", Zeros(shape)),
		runningVar:  NewParameter("running_var", Ones(shape)),
	}
}

// Spec describes the layer.
func (b *BatchNorm2d) Spec() serialization.LayerSpec {
	return serialization.LayerSpec{Type: "BatchNorm2d", Params: map[string]float64{
		"num_features": float64(b.numFeatures),
		"eps":          b.eps,
		"momentum":     b.momentum,
	}}
}

// Parameters returns weight, bias, running_mean and running_var.
func (b *BatchNorm2d) Parameters() []*Parameter {
	return []*Parameter{b.weight, b.bias, b.runningMean, b.runningVar}
}

// Trace emits BatchNormalization.
func (b *BatchNorm2d) Trace(t *Tracer, scope, input string) (string, error) {
	if b.Training() {
		return "", fmt.Errorf("%w: BatchNorm2d uses batch statistics", ErrTrainingMode)
	}
	shape := t.Shape(input)
	if err := expectRank(shape, 4); err != nil {
		return "", err
	}
	if shape[1] != b.numFeatures {
		return "", fmt.Errorf("%w: BatchNorm2d expects %d channels, got %d", ErrShapeMismatch, b.numFeatures, shape[1])
	}
	inputs := []string{
		input,
		t.Param(scope, b.weight),
		t.Param(scope, b.bias),
		t.Param(scope, b.runningMean),
		t.Param(scope, b.runningVar),
	}
	return t.Op(scope, "BatchNormalization", inputs, shape,
		graph.FloatAttr("epsilon", float32(b.eps)),
		graph.FloatAttr("momentum", float32(b.momentum)),
	), nil
}
