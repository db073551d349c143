package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashuvision/modelport/internal/tensor"
)

func spec(name string, dims ...Dim) TensorSpec {
	return TensorSpec{Name: name, ElemType: tensor.Float32, Shape: dims}
}

func weight(t *testing.T, name string, rows, cols int) Initializer {
	t.Helper()
	values := make([]float32, rows*cols)
	raw, err := tensor.FromFloat32(tensor.Shape{rows, cols}, tensor.Float32, values)
	require.NoError(t, err)
	return NewInitializer(name, raw)
}

func TestBuildLinearChain(t *testing.T) {
	nodes := []Node{
		{Name: "pool", OpType: "GlobalAveragePool", Inputs: []string{"x"}, Outputs: []string{"p"}},
		{Name: "flat", OpType: "Flatten", Inputs: []string{"p"}, Outputs: []string{"f"}, Attributes: []Attribute{IntAttr("axis", 1)}},
		{Name: "fc", OpType: "MatMul", Inputs: []string{"f", "w"}, Outputs: []string{"y"}},
	}
	g, err := Build("chain",
		nodes,
		[]TensorSpec{spec("x", Dims(1, 3, 8, 8)...)},
		[]TensorSpec{spec("y", Dims(1, 4)...)},
		[]Initializer{weight(t, "w", 3, 4)},
		spec("f", Dims(1, 3)...),
	)
	require.NoError(t, err)

	assert.Equal(t, "chain", g.Name)
	assert.Equal(t, []string{"GlobalAveragePool", "Flatten", "MatMul"}, g.OpTypes())
	_, ok := g.Input("x")
	assert.True(t, ok)
	_, ok = g.Output("y")
	assert.True(t, ok)
	w, ok := g.Initializer("w")
	require.True(t, ok)
	assert.Equal(t, "[3, 4]", w.Spec.ShapeString())
	attr, ok := g.Nodes[1].Attr("axis")
	require.True(t, ok)
	assert.Equal(t, int64(1), attr.I)
}

func TestBuildDanglingReference(t *testing.T) {
	_, err := Build("bad",
		[]Node{{Name: "fc", OpType: "MatMul", Inputs: []string{"x", "missing"}, Outputs: []string{"y"}}},
		[]TensorSpec{spec("x", Dims(1, 3)...)},
		[]TensorSpec{spec("y", Dims(1, 4)...)},
		nil,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDanglingReference))

	var cerr *ConstructionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindDanglingReference, cerr.Type)
	assert.Equal(t, "missing", cerr.Tensor)
	assert.Equal(t, "fc", cerr.Node)
	assert.Equal(t, "GraphConstructionError", cerr.Kind())
}

func TestBuildForwardReferenceIsDangling(t *testing.T) {
	// "a" is produced, but only by a node declared after its consumer.
	_, err := Build("fwd",
		[]Node{
			{Name: "second", OpType: "Relu", Inputs: []string{"a"}, Outputs: []string{"b"}},
			{Name: "first", OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"a"}},
		},
		[]TensorSpec{spec("x", Dims(2)...)},
		[]TensorSpec{spec("b", Dims(2)...)},
		nil,
	)
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestBuildDuplicateProducers(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Graph, error)
	}{
		{
			name: "two nodes write the same tensor",
			build: func() (*Graph, error) {
				return Build("dup",
					[]Node{
						{Name: "a", OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"y"}},
						{Name: "b", OpType: "Sigmoid", Inputs: []string{"x"}, Outputs: []string{"y"}},
					},
					[]TensorSpec{spec("x", Dims(2)...)}, nil, nil)
			},
		},
		{
			name: "node overwrites graph input",
			build: func() (*Graph, error) {
				return Build("dup",
					[]Node{{Name: "a", OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"x"}}},
					[]TensorSpec{spec("x", Dims(2)...)}, nil, nil)
			},
		},
		{
			name: "initializer shadows input",
			build: func() (*Graph, error) {
				return Build("dup", nil,
					[]TensorSpec{spec("w", Dims(2, 2)...)}, nil,
					[]Initializer{weight(t, "w", 2, 2)})
			},
		},
		{
			name: "node names collide",
			build: func() (*Graph, error) {
				return Build("dup",
					[]Node{
						{Name: "n", OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"a"}},
						{Name: "n", OpType: "Relu", Inputs: []string{"a"}, Outputs: []string{"b"}},
					},
					[]TensorSpec{spec("x", Dims(2)...)}, nil, nil)
			},
		},
		{
			name: "output declared twice",
			build: func() (*Graph, error) {
				return Build("dup", nil,
					[]TensorSpec{spec("x", Dims(2)...)},
					[]TensorSpec{spec("x", Dims(2)...), spec("x", Dims(2)...)}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.build()
			assert.Nil(t, g)
			assert.ErrorIs(t, err, ErrDuplicateTensorName)
		})
	}
}

func TestBuildOutputWithoutProducer(t *testing.T) {
	_, err := Build("noprod", nil,
		[]TensorSpec{spec("x", Dims(2)...)},
		[]TensorSpec{spec("y", Dims(2)...)}, nil)
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestBuildPassThroughOutput(t *testing.T) {
	g, err := Build("identity", nil,
		[]TensorSpec{spec("x", Symbolic(BatchDim), Fixed(3))},
		[]TensorSpec{spec("x", Symbolic(BatchDim), Fixed(3))}, nil)
	require.NoError(t, err)
	assert.Len(t, g.Outputs, 1)
}

func TestBuildInvalidSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec TensorSpec
	}{
		{"empty name", spec("", Dims(1)...)},
		{"rank zero", spec("x")},
		{"zero dim", spec("x", Fixed(0))},
		{"negative dim", spec("x", Fixed(-3))},
		{"two symbolic dims", spec("x", Symbolic("a"), Symbolic("b"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder("g").AddInput(tt.spec).Build()
			assert.ErrorIs(t, err, ErrInvalidTensorSpec)
		})
	}
}

func TestBuildInvalidInitializer(t *testing.T) {
	w := weight(t, "w", 2, 3)

	mismatch := w
	mismatch.Spec = spec("w", Dims(3, 3)...)
	_, err := NewBuilder("g").AddInitializer(mismatch).Build()
	assert.ErrorIs(t, err, ErrInvalidInitializer)

	symbolic := w
	symbolic.Spec = spec("w", Symbolic(BatchDim), Fixed(3))
	_, err = NewBuilder("g").AddInitializer(symbolic).Build()
	assert.ErrorIs(t, err, ErrInvalidInitializer)

	empty := Initializer{Spec: spec("w", Dims(1)...)}
	_, err = NewBuilder("g").AddInitializer(empty).Build()
	assert.ErrorIs(t, err, ErrInvalidInitializer)
}

func TestBuildValueInfoMustBeProduced(t *testing.T) {
	_, err := NewBuilder("g").
		AddInput(spec("x", Dims(2)...)).
		AddValueInfo(spec("ghost", Dims(2)...)).
		Build()
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestBuilderStickyError(t *testing.T) {
	b := NewBuilder("g").
		AddNode(Node{Name: "n", OpType: "Relu", Inputs: []string{"nope"}, Outputs: []string{"y"}}).
		AddInput(spec("x", Dims(2)...))
	_, err := b.Build()
	assert.ErrorIs(t, err, ErrDanglingReference)
}

func TestBuildCopiesInputs(t *testing.T) {
	in := spec("x", Dims(1, 2)...)
	n := Node{Name: "r", OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"y"}}
	g, err := Build("copy", []Node{n}, []TensorSpec{in}, []TensorSpec{spec("y", Dims(1, 2)...)}, nil)
	require.NoError(t, err)

	in.Shape[0] = Fixed(9)
	n.Inputs[0] = "z"
	assert.Equal(t, int64(1), g.Inputs[0].Shape[0].Value)
	assert.Equal(t, "x", g.Nodes[0].Inputs[0])
}

func TestTensorSpecConcrete(t *testing.T) {
	s, err := spec("x", Dims(2, 3)...).Concrete()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, s)

	_, err = spec("x", Symbolic(BatchDim), Fixed(3)).Concrete()
	assert.Error(t, err)
	assert.Equal(t, "[batch_size, 3]", spec("x", Symbolic(BatchDim), Fixed(3)).ShapeString())
}
