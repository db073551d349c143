package synth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/onnx"
	"github.com/pashuvision/modelport/internal/tensor"
	"github.com/pashuvision/modelport/internal/validate"
)

var shapes = []struct {
	input   [4]int
	classes int
}{
	{[4]int{1, 3, 224, 224}, 50},
	{[4]int{1, 1, 1, 1}, 1},
	{[4]int{8, 3, 32, 32}, 10},
	{[4]int{2, 64, 7, 7}, 1000},
	{[4]int{4, 1, 28, 28}, 2},
}

// TestShapeContract checks that the input is exactly (b,c,h,w) and the
// output exactly (b,n).
func TestShapeContract(t *testing.T) {
	gen := New(WithSeed(1))
	for _, tt := range shapes {
		t.Run(fmt.Sprint(tt.input, tt.classes), func(t *testing.T) {
			m, err := gen.Generate(tt.input, tt.classes)
			require.NoError(t, err)

			b, c, h, w := tt.input[0], tt.input[1], tt.input[2], tt.input[3]
			require.Len(t, m.Graph.Inputs, 1)
			assert.Equal(t, graph.Dims(b, c, h, w), m.Graph.Inputs[0].Shape)
			require.Len(t, m.Graph.Outputs, 1)
			assert.Equal(t, graph.Dims(b, tt.classes), m.Graph.Outputs[0].Shape)

			init, ok := m.Graph.Initializer(WeightName)
			require.True(t, ok)
			assert.Equal(t, tensor.Shape{c, tt.classes}, init.Data.Shape())
		})
	}
}

// TestAlwaysValid checks that every generated model passes validation.
func TestAlwaysValid(t *testing.T) {
	gen := New()
	v := validate.New()
	for _, tt := range shapes {
		m, err := gen.Generate(tt.input, tt.classes)
		require.NoError(t, err)
		assert.NoError(t, v.Validate(m), "%v/%d", tt.input, tt.classes)
	}
}

func TestStructure(t *testing.T) {
	m, err := New(WithSeed(7)).Generate([4]int{1, 3, 224, 224}, 50)
	require.NoError(t, err)

	assert.Equal(t, GraphName, m.Graph.Name)
	assert.Equal(t, int64(OpsetVersion), m.OpsetVersion)
	assert.Equal(t, []string{"GlobalAveragePool", "Flatten", "MatMul"}, m.Graph.OpTypes())
	assert.Equal(t, "global_avg_pool", m.Graph.Nodes[0].Name)
	assert.Equal(t, "flatten", m.Graph.Nodes[1].Name)
	assert.Equal(t, "linear", m.Graph.Nodes[2].Name)
	assert.Equal(t, []string{"flattened", "weight"}, m.Graph.Nodes[2].Inputs)

	for _, d := range m.Graph.Inputs[0].Shape {
		assert.False(t, d.IsSymbolic())
	}
	require.Len(t, m.Graph.ValueInfo, 2)
	assert.Equal(t, graph.Dims(1, 3, 1, 1), m.Graph.ValueInfo[0].Shape)
	assert.Equal(t, graph.Dims(1, 3), m.Graph.ValueInfo[1].Shape)
}

func TestSeedIsReproducible(t *testing.T) {
	a, err := New(WithSeed(42)).Generate([4]int{1, 3, 8, 8}, 5)
	require.NoError(t, err)
	b, err := New(WithSeed(42)).Generate([4]int{1, 3, 8, 8}, 5)
	require.NoError(t, err)
	c, err := New(WithSeed(43)).Generate([4]int{1, 3, 8, 8}, 5)
	require.NoError(t, err)

	wa, _ := a.Graph.Initializer(WeightName)
	wb, _ := b.Graph.Initializer(WeightName)
	wc, _ := c.Graph.Initializer(WeightName)
	assert.True(t, wa.Data.Equal(wb.Data))
	assert.False(t, wa.Data.Equal(wc.Data))
}

// TestRoundTrip checks node order and tensor names survive encoding.
func TestRoundTrip(t *testing.T) {
	m, err := New(WithSeed(3)).Generate([4]int{2, 3, 16, 16}, 12)
	require.NoError(t, err)

	data, err := onnx.Encode(m)
	require.NoError(t, err)
	back, err := onnx.Decode(data)
	require.NoError(t, err)

	assert.Len(t, back.Graph.Nodes, len(m.Graph.Nodes))
	assert.Equal(t, m.Graph.OpTypes(), back.Graph.OpTypes())
	assert.Equal(t, names(m.Graph.Inputs), names(back.Graph.Inputs))
	assert.Equal(t, names(m.Graph.Outputs), names(back.Graph.Outputs))
	require.Len(t, back.Graph.Initializers, 1)
	assert.Equal(t, WeightName, back.Graph.Initializers[0].Name())
	assert.NoError(t, validate.New().Validate(back))
}

func TestInvalidSizes(t *testing.T) {
	tests := []struct {
		name    string
		input   [4]int
		classes int
	}{
		{"zero classes", [4]int{1, 3, 8, 8}, 0},
		{"negative classes", [4]int{1, 3, 8, 8}, -1},
		{"zero batch", [4]int{0, 3, 8, 8}, 5},
		{"zero channels", [4]int{1, 0, 8, 8}, 5},
		{"negative height", [4]int{1, 3, -8, 8}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New().Generate(tt.input, tt.classes)
			assert.Nil(t, m)
			var cerr *graph.ConstructionError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.ErrorIs(t, err, graph.ErrInvalidTensorSpec)
		})
	}
}

func names(specs []graph.TensorSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}
