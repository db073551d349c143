package nn

import (
	"fmt"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/serialization"
	"github.com/pashuvision/modelport/internal/tensor"
)

// Conv2d is a 2D convolutional layer with square kernels.
//
// Input shape: [batch, in_channels, height, width]
// Output shape: [batch, out_channels, out_height, out_width]
//
// Where:
//
//	out_height = (height + 2*padding - kernel_size) / stride + 1
//	out_width = (width + 2*padding - kernel_size) / stride + 1
//
// Weight shape: [out_channels, in_channels, kernel_size, kernel_size]
// Bias shape: [out_channels]
type Conv2d struct {
	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int
	weight      *Parameter
	bias        *Parameter
}

// NewConv2d creates a Conv2d layer with Xavier-initialized weights.
//
// Panics if channels, kernel size or stride are not positive, or padding is
// negative.
func NewConv2d(inChannels, outChannels, kernelSize, stride, padding int, bias bool) *Conv2d {
	if inChannels <= 0 || outChannels <= 0 || kernelSize <= 0 || stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("Conv2d: invalid config in=%d out=%d kernel=%d stride=%d padding=%d",
			inChannels, outChannels, kernelSize, stride, padding))
	}
	fanIn := inChannels * kernelSize * kernelSize
	fanOut := outChannels * kernelSize * kernelSize
	c := &Conv2d{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		weight: NewParameter("weight",
			Xavier(fanIn, fanOut, tensor.Shape{outChannels, inChannels, kernelSize, kernelSize})),
	}
	if bias {
		c.bias = NewParameter("bias", Zeros(tensor.Shape{outChannels}))
	}
	return c
}

// Spec describes the layer.
func (c *Conv2d) Spec() serialization.LayerSpec {
	return serialization.LayerSpec{Type: "Conv2d", Params: map[string]float64{
		"in_channels":  float64(c.inChannels),
		"out_channels": float64(c.outChannels),
		"kernel_size":  float64(c.kernelSize),
		"stride":       float64(c.stride),
		"padding":      float64(c.padding),
		"bias":         boolParam(c.bias != nil),
	}}
}

// Parameters returns weight and, if present, bias.
func (c *Conv2d) Parameters() []*Parameter {
	if c.bias == nil {
		return []*Parameter{c.weight}
	}
	return []*Parameter{c.weight, c.bias}
}

// Trace emits Conv.
func (c *Conv2d) Trace(t *Tracer, scope, input string) (string, error) {
	shape := t.Shape(input)
	if err := expectRank(shape, 4); err != nil {
		return "", err
	}
	if shape[1] != c.inChannels {
		return "", fmt.Errorf("%w: Conv2d expects %d input channels, got %d", ErrShapeMismatch, c.inChannels, shape[1])
	}
	outH, err := windowOutput(shape[2], c.kernelSize, c.stride, c.padding)
	if err != nil {
		return "", err
	}
	outW, err := windowOutput(shape[3], c.kernelSize, c.stride, c.padding)
	if err != nil {
		return "", err
	}

	inputs := []string{input, t.Param(scope, c.weight)}
	if c.bias != nil {
		inputs = append(inputs, t.Param(scope, c.bias))
	}
	k, s, p := int64(c.kernelSize), int64(c.stride), int64(c.padding)
	return t.Op(scope, "Conv", inputs, tensor.Shape{shape[0], c.outChannels, outH, outW},
		graph.IntsAttr("dilations", 1, 1),
		graph.IntAttr("group", 1),
		graph.IntsAttr("kernel_shape", k, k),
		graph.IntsAttr("pads", p, p, p, p),
		graph.IntsAttr("strides", s, s),
	), nil
}

// windowOutput computes a sliding-window output size.
func windowOutput(size, kernel, stride, padding int) (int, error) {
	out := (size+2*padding-kernel)/stride + 1
	if size+2*padding < kernel || out <= 0 {
		return 0, fmt.Errorf("%w: kernel %d does not fit spatial size %d with padding %d",
			ErrShapeMismatch, kernel, size, padding)
	}
	return out, nil
}
