package nn

import (
	"fmt"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/serialization"
	"github.com/pashuvision/modelport/internal/tensor"
)

// MaxPool2d applies 2D max pooling with a square window.
//
// Input shape: [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
type MaxPool2d struct {
	kernelSize int
	stride     int
	padding    int
}

// NewMaxPool2d creates a MaxPool2d layer. A stride of 0 defaults to the
// kernel size.
func NewMaxPool2d(kernelSize, stride, padding int) *MaxPool2d {
	if stride == 0 {
		stride = kernelSize
	}
	if kernelSize <= 0 || stride <= 0 || padding < 0 || 2*padding > kernelSize {
		panic(fmt.Sprintf("MaxPool2d: invalid config kernel=%d stride=%d padding=%d", kernelSize, stride, padding))
	}
	return &MaxPool2d{kernelSize: kernelSize, stride: stride, padding: padding}
}

// Spec describes the layer.
func (m *MaxPool2d) Spec() serialization.LayerSpec {
	return serialization.LayerSpec{Type: "MaxPool2d", Params: map[string]float64{
		"kernel_size": float64(m.kernelSize),
		"stride":      float64(m.stride),
		"padding":     float64(m.padding),
	}}
}

// Parameters returns nil.
func (m *MaxPool2d) Parameters() []*Parameter {
	return nil
}

// Trace emits MaxPool.
func (m *MaxPool2d) Trace(t *Tracer, scope, input string) (string, error) {
	shape := t.Shape(input)
	if err := expectRank(shape, 4); err != nil {
		return "", err
	}
	outH, err := windowOutput(shape[2], m.kernelSize, m.stride, m.padding)
	if err != nil {
		return "", err
	}
	outW, err := windowOutput(shape[3], m.kernelSize, m.stride, m.padding)
	if err != nil {
		return "", err
	}
	k, s, p := int64(m.kernelSize), int64(m.stride), int64(m.padding)
	return t.Op(scope, "MaxPool", []string{input}, tensor.Shape{shape[0], shape[1], outH, outW},
		graph.IntsAttr("kernel_shape", k, k),
		graph.IntsAttr("pads", p, p, p, p),
		graph.IntsAttr("strides", s, s),
	), nil
}

// GlobalAvgPool averages every spatial position of each channel.
//
// Input shape: [batch, channels, d1, ..., dn]
// Output shape: [batch, channels, 1, ..., 1]
type GlobalAvgPool struct{}

// NewGlobalAvgPool creates a GlobalAvgPool layer.
func NewGlobalAvgPool() *GlobalAvgPool {
	return &GlobalAvgPool{}
}

// Spec describes the layer.
func (g *GlobalAvgPool) Spec() serialization.LayerSpec {
	return serialization.LayerSpec{Type: "GlobalAvgPool"}
}

// Parameters returns nil.
func (g *GlobalAvgPool) Parameters() []*Parameter {
	return nil
}

// Trace emits GlobalAveragePool.
func (g *GlobalAvgPool) Trace(t *Tracer, scope, input string) (string, error) {
	shape := t.Shape(input)
	if len(shape) < 3 {
		return "", fmt.Errorf("%w: GlobalAvgPool needs spatial axes, got shape %v", ErrUnsupportedDim, shape)
	}
	out := shape.Clone()
	for i := 2; i < len(out); i++ {
		out[i] = 1
	}
	return t.Op(scope, "GlobalAveragePool", []string{input}, out), nil
}
