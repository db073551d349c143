package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/serialization"
	"github.com/pashuvision/modelport/internal/tensor"
)

func classifier() *Sequential {
	return NewSequential(
		NewConv2d(3, 4, 3, 1, 1, true),
		NewBatchNorm2d(4, 1e-5, 0.1),
		NewReLU(),
		NewMaxPool2d(2, 2, 0),
		NewGlobalAvgPool(),
		NewFlatten(),
		NewDropout(0.3),
		NewLinear(4, 5, true),
	)
}

func TestSequentialMode(t *testing.T) {
	s := classifier()
	assert.True(t, s.IsTraining())
	bn := s.Module(1).(*BatchNorm2d)
	assert.True(t, bn.Training())

	s.Eval()
	assert.False(t, s.IsTraining())
	assert.False(t, bn.Training())
	assert.False(t, s.Module(6).(*Dropout).Training())

	s.Train()
	assert.True(t, bn.Training())

	// Modules added later follow the container's mode.
	s.Eval()
	d := NewDropout(0.1)
	s.Add(d)
	assert.False(t, d.Training())
}

func TestSequentialStateDict(t *testing.T) {
	s := classifier()
	dict := s.StateDict()

	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		"0.weight", "0.bias",
		"1.weight", "1.bias", "1.running_mean", "1.running_var",
		"7.weight", "7.bias",
	}, keys)
	assert.Equal(t, tensor.Shape{4, 3, 3, 3}, dict["0.weight"].Shape())
	assert.Equal(t, tensor.Shape{5, 4}, dict["7.weight"].Shape())
}

func TestSequentialLoadStateDict(t *testing.T) {
	src := classifier()
	dst := classifier()
	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	for k, v := range src.StateDict() {
		assert.True(t, v.Equal(dst.StateDict()[k]), "%s differs", k)
	}
}

func TestSequentialLoadStateDictErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		dict := classifier().StateDict()
		delete(dict, "1.running_var")
		err := classifier().LoadStateDict(dict)
		assert.ErrorIs(t, err, ErrMissingWeight)
		assert.Contains(t, err.Error(), "1.running_var")
	})

	t.Run("unexpected", func(t *testing.T) {
		dict := classifier().StateDict()
		dict["9.weight"] = Zeros(tensor.Shape{1})
		assert.ErrorIs(t, classifier().LoadStateDict(dict), ErrUnexpected)
	})

	t.Run("wrong shape", func(t *testing.T) {
		dict := classifier().StateDict()
		dict["7.weight"] = Zeros(tensor.Shape{4, 5})
		assert.ErrorIs(t, classifier().LoadStateDict(dict), ErrWeightShape)
	})
}

func TestSequentialTrace(t *testing.T) {
	s := classifier()
	s.Eval()

	tr := NewTracer("input", tensor.Shape{1, 3, 16, 16})
	out, err := s.Trace(tr, "input")
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 5}, tr.Shape(out))

	ops := make([]string, 0, len(tr.Nodes()))
	for _, n := range tr.Nodes() {
		ops = append(ops, n.OpType)
	}
	assert.Equal(t, []string{
		"Conv", "BatchNormalization", "Relu", "MaxPool", "GlobalAveragePool", "Flatten", "Gemm",
	}, ops)
}

func TestSequentialTraceErrorNamesLayer(t *testing.T) {
	s := classifier()
	tr := NewTracer("input", tensor.Shape{1, 3, 16, 16})
	_, err := s.Trace(tr, "input")
	require.ErrorIs(t, err, ErrTrainingMode)
	assert.Contains(t, err.Error(), "layer 1 (BatchNorm2d)")
}

func TestFromSpecs(t *testing.T) {
	s := classifier()
	rebuilt, err := FromSpecs(s.Specs())
	require.NoError(t, err)
	assert.Equal(t, s.Specs(), rebuilt.Specs())
	require.NoError(t, rebuilt.LoadStateDict(s.StateDict()))
}

func TestFromSpecsDefaults(t *testing.T) {
	s, err := FromSpecs([]serialization.LayerSpec{
		{Type: "Conv2d", Params: map[string]float64{"in_channels": 3, "out_channels": 2, "kernel_size": 3}},
		{Type: "MaxPool2d", Params: map[string]float64{"kernel_size": 2}},
		{Type: "Dropout"},
	})
	require.NoError(t, err)

	conv := s.Module(0).(*Conv2d)
	assert.Equal(t, 1, conv.stride)
	assert.Equal(t, 0, conv.padding)
	assert.NotNil(t, conv.bias)
	assert.Equal(t, 2, s.Module(1).(*MaxPool2d).stride)
	assert.InDelta(t, 0.5, s.Module(2).(*Dropout).p, 1e-9)
}

func TestFromSpecsErrors(t *testing.T) {
	tests := []struct {
		name   string
		spec   serialization.LayerSpec
		target error
	}{
		{"unknown type", serialization.LayerSpec{Type: "LSTM"}, ErrUnknownLayer},
		{"missing param", serialization.LayerSpec{Type: "Linear", Params: map[string]float64{"in_features": 3}}, ErrInvalidConfig},
		{"fractional param", serialization.LayerSpec{Type: "Linear", Params: map[string]float64{"in_features": 3.5, "out_features": 2}}, ErrInvalidConfig},
		{"zero channels", serialization.LayerSpec{Type: "Conv2d", Params: map[string]float64{"in_channels": 0, "out_channels": 2, "kernel_size": 3}}, ErrInvalidConfig},
		{"bad eps", serialization.LayerSpec{Type: "BatchNorm2d", Params: map[string]float64{"num_features": 3, "eps": 0}}, ErrInvalidConfig},
		{"pool padding", serialization.LayerSpec{Type: "MaxPool2d", Params: map[string]float64{"kernel_size": 2, "padding": 2}}, ErrInvalidConfig},
		{"dropout p", serialization.LayerSpec{Type: "Dropout", Params: map[string]float64{"p": 1}}, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSpecs([]serialization.LayerSpec{tt.spec})
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestLayerTypes(t *testing.T) {
	assert.Equal(t, []string{
		"BatchNorm2d", "Conv2d", "Dropout", "Flatten", "GlobalAvgPool",
		"Linear", "MaxPool2d", "ReLU", "Sigmoid", "Softmax",
	}, LayerTypes())
}

func TestTracerFinish(t *testing.T) {
	s := classifier()
	s.Eval()

	tr := NewTracer("input", tensor.Shape{1, 3, 8, 8})
	out, err := s.Trace(tr, "input")
	require.NoError(t, err)

	g, err := tr.Finish("classifier", out, "output", true)
	require.NoError(t, err)

	batch := graph.Symbolic(graph.BatchDim)
	require.Len(t, g.Inputs, 1)
	assert.Equal(t, []graph.Dim{batch, graph.Fixed(3), graph.Fixed(8), graph.Fixed(8)}, g.Inputs[0].Shape)
	require.Len(t, g.Outputs, 1)
	assert.Equal(t, "output", g.Outputs[0].Name)
	assert.Equal(t, []graph.Dim{batch, graph.Fixed(5)}, g.Outputs[0].Shape)

	last := g.Nodes[len(g.Nodes)-1]
	assert.Equal(t, []string{"output"}, last.Outputs)
	assert.Len(t, g.ValueInfo, len(g.Nodes)-1)
	for _, vi := range g.ValueInfo {
		assert.True(t, vi.Shape[0].IsSymbolic(), vi.Name)
	}
	assert.Len(t, g.Initializers, 8)
}

func TestTracerFinishFixedBatch(t *testing.T) {
	tr := NewTracer("input", tensor.Shape{2, 4})
	out, err := NewReLU().Trace(tr, "0", "input")
	require.NoError(t, err)

	g, err := tr.Finish("relu", out, "output", false)
	require.NoError(t, err)
	assert.Equal(t, graph.Dims(2, 4), g.Inputs[0].Shape)
	assert.Equal(t, graph.Dims(2, 4), g.Outputs[0].Shape)
}

func TestTracerFinishPassThrough(t *testing.T) {
	d := NewDropout(0.5)
	s := NewSequential(d)
	s.Eval()

	tr := NewTracer("input", tensor.Shape{1, 4})
	out, err := s.Trace(tr, "input")
	require.NoError(t, err)

	g, err := tr.Finish("identity", out, "output", true)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "Identity", g.Nodes[0].OpType)
	assert.Equal(t, []string{"input"}, g.Nodes[0].Inputs)
	assert.Equal(t, []string{"output"}, g.Nodes[0].Outputs)
}

func TestTracerFinishUnknownTensor(t *testing.T) {
	tr := NewTracer("input", tensor.Shape{1, 4})
	_, err := tr.Finish("g", "nope", "output", true)
	assert.Error(t, err)
}
