// Package nn implements the sequential layer modules a .born artifact can
// describe, and traces them into a computation graph.
//
// This package provides:
//   - Module interface: common surface of every layer
//   - Parameter: named weight tensor with shape checking on load
//   - Layers: Conv2d, BatchNorm2d, MaxPool2d, GlobalAvgPool, Flatten,
//     Dropout, Linear, ReLU, Sigmoid, Softmax
//   - Sequential: container with state-dict naming and train/eval mode
//   - Tracer: records nodes, initializers and intermediate shapes
//
// Modules do not compute values. Trace propagates concrete shapes and emits
// the ONNX nodes each layer corresponds to.
package nn

import (
	"errors"

	"github.com/pashuvision/modelport/internal/serialization"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrUnknownLayer   = errors.New("unknown layer type")
	ErrInvalidConfig  = errors.New("invalid layer config")
	ErrMissingWeight  = errors.New("missing weight")
	ErrUnexpected     = errors.New("unexpected weight")
	ErrWeightShape    = errors.New("weight shape mismatch")
	ErrShapeMismatch  = errors.New("input shape mismatch")
	ErrTrainingMode   = errors.New("layer is in training mode")
	ErrNotTraceable   = errors.New("layer cannot be traced statically")
	ErrUnsupportedDim = errors.New("unsupported input rank")
)

// Module is the base interface for all layers.
//
//	model := nn.NewSequential(
//	    nn.NewConv2d(3, 16, 3, 1, 1, true),
//	    nn.NewReLU(),
//	    nn.NewGlobalAvgPool(),
//	    nn.NewFlatten(),
//	    nn.NewLinear(16, 10, true),
//	)
type Module interface {
	// Spec describes the layer as stored in an artifact header.
	Spec() serialization.LayerSpec

	// Parameters returns the layer's weights. Layers without weights return nil.
	Parameters() []*Parameter

	// Trace emits the layer's nodes for the tensor named input and returns the
	// name of the tensor it produces. Names are prefixed with scope.
	Trace(t *Tracer, scope, input string) (string, error)
}

// Switchable is implemented by layers whose behavior differs between
// training and inference.
type Switchable interface {
	SetTraining(training bool)
	Training() bool
}

// mode is embedded by Switchable layers. New layers start in training mode.
type mode struct {
	eval bool
}

// SetTraining switches between training and inference behavior.
func (m *mode) SetTraining(training bool) {
	m.eval = !training
}

// Training reports whether the layer is in training mode.
func (m *mode) Training() bool {
	return !m.eval
}
