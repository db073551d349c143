package nn

import (
	"fmt"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/tensor"
)

// Tracer records the nodes and weights a forward pass would touch, and the
// concrete shape of every tensor it produces. It never computes values.
type Tracer struct {
	dtype     tensor.DataType
	input     string
	shapes    map[string]tensor.Shape
	nodes     []graph.Node
	inits     []graph.Initializer
	params    map[string]bool
	produced  []string // Node outputs in order, for value_info
	nodeNames map[string]bool
}

// NewTracer starts a trace from a float32 placeholder input.
func NewTracer(input string, shape tensor.Shape) *Tracer {
	return &Tracer{
		dtype:     tensor.Float32,
		input:     input,
		shapes:    map[string]tensor.Shape{input: shape.Clone()},
		params:    make(map[string]bool),
		nodeNames: make(map[string]bool),
	}
}

// Shape returns the traced shape of a tensor, or nil if it is unknown.
func (t *Tracer) Shape(name string) tensor.Shape {
	return t.shapes[name].Clone()
}

// Nodes returns the nodes recorded so far.
func (t *Tracer) Nodes() []graph.Node {
	return t.nodes
}

// Param registers p as an initializer named "<scope>.<name>" and returns
// that name. Registering the same name twice is a no-op.
func (t *Tracer) Param(scope string, p *Parameter) string {
	name := scope + "." + p.Name()
	if !t.params[name] {
		t.params[name] = true
		t.inits = append(t.inits, graph.NewInitializer(name, p.Value()))
	}
	return name
}

// Op records a single-output node named "<op>_<scope>" and returns the
// name of its output tensor.
func (t *Tracer) Op(scope, op string, inputs []string, out tensor.Shape, attrs ...graph.Attribute) string {
	name := op + "_" + scope
	for i := 1; t.nodeNames[name]; i++ {
		name = fmt.Sprintf("%s_%s_%d", op, scope, i)
	}
	t.nodeNames[name] = true

	output := name + "_output"
	t.nodes = append(t.nodes, graph.Node{
		Name:       name,
		OpType:     op,
		Inputs:     inputs,
		Outputs:    []string{output},
		Attributes: attrs,
	})
	t.shapes[output] = out.Clone()
	t.produced = append(t.produced, output)
	return output
}

// Finish assembles the traced graph. The tensor named final becomes the
// graph output, renamed to output. With dynamicBatch set, axis 0 of the
// input, the output and every intermediate tensor is symbolic.
func (t *Tracer) Finish(name, final, output string, dynamicBatch bool) (*graph.Graph, error) {
	finalShape, ok := t.shapes[final]
	if !ok {
		return nil, fmt.Errorf("trace result %q was never produced", final)
	}

	nodes := make([]graph.Node, 0, len(t.nodes)+1)
	if final == t.input {
		nodes = append(nodes, graph.Node{
			Name:    "Identity_output",
			OpType:  "Identity",
			Inputs:  []string{t.input},
			Outputs: []string{output},
		})
	}
	for _, n := range t.nodes {
		n.Inputs = rename(n.Inputs, final, output)
		n.Outputs = rename(n.Outputs, final, output)
		nodes = append(nodes, n)
	}

	valueInfo := make([]graph.TensorSpec, 0, len(t.produced))
	for _, p := range t.produced {
		if p == final {
			continue
		}
		valueInfo = append(valueInfo, t.spec(p, t.shapes[p], dynamicBatch))
	}

	return graph.Build(
		name,
		nodes,
		[]graph.TensorSpec{t.spec(t.input, t.shapes[t.input], dynamicBatch)},
		[]graph.TensorSpec{t.spec(output, finalShape, dynamicBatch)},
		t.inits,
		valueInfo...,
	)
}

func (t *Tracer) spec(name string, shape tensor.Shape, dynamicBatch bool) graph.TensorSpec {
	dims := graph.Dims(shape...)
	if dynamicBatch && len(dims) > 0 {
		dims[0] = graph.Symbolic(graph.BatchDim)
	}
	return graph.TensorSpec{Name: name, ElemType: t.dtype, Shape: dims}
}

func rename(names []string, from, to string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if n == from {
			n = to
		}
		out[i] = n
	}
	return out
}
