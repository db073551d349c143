package graph

import "fmt"

// Builder assembles a Graph while enforcing construction invariants:
//   - every tensor name has exactly one producer (graph input, initializer
//     or node output)
//   - node inputs resolve to producers declared before the node
//   - graph outputs are produced by a node or pass a graph input through
//
// The first failure is sticky: later Add calls are ignored and Build returns
// it. Builder performs no shape inference.
//
// Example:
//
//	g, err := graph.NewBuilder("mlp").
//	    AddInput(in).
//	    AddInitializer(w).
//	    AddNode(graph.Node{Name: "fc", OpType: "MatMul", Inputs: []string{"x", "w"}, Outputs: []string{"y"}}).
//	    AddOutput(out).
//	    Build()
type Builder struct {
	g         Graph
	producers map[string]string // tensor name -> producer description
	nodeNames map[string]bool
	outputs   map[string]bool
	err       error
}

// NewBuilder creates an empty builder for a graph with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		g:         Graph{Name: name},
		producers: make(map[string]string),
		nodeNames: make(map[string]bool),
		outputs:   make(map[string]bool),
	}
}

// Build assembles a graph in one call. Inputs and initializers are declared
// first, then nodes in order, then outputs.
func Build(name string, nodes []Node, inputs, outputs []TensorSpec, initializers []Initializer, valueInfo ...TensorSpec) (*Graph, error) {
	b := NewBuilder(name)
	for _, in := range inputs {
		b.AddInput(in)
	}
	for _, init := range initializers {
		b.AddInitializer(init)
	}
	for _, n := range nodes {
		b.AddNode(n)
	}
	for _, out := range outputs {
		b.AddOutput(out)
	}
	for _, vi := range valueInfo {
		b.AddValueInfo(vi)
	}
	return b.Build()
}

// AddInput declares a graph input.
func (b *Builder) AddInput(spec TensorSpec) *Builder {
	if b.err != nil {
		return b
	}
	if err := spec.Validate(); err != nil {
		b.fail(KindInvalidTensorSpec, spec.Name, "", err.Error())
		return b
	}
	if !b.produce(spec.Name, "graph input", "") {
		return b
	}
	b.g.Inputs = append(b.g.Inputs, spec.clone())
	return b
}

// AddInitializer declares a constant tensor.
func (b *Builder) AddInitializer(init Initializer) *Builder {
	if b.err != nil {
		return b
	}
	if err := init.Validate(); err != nil {
		b.fail(KindInvalidInitializer, init.Spec.Name, "", err.Error())
		return b
	}
	if !b.produce(init.Spec.Name, "initializer", "") {
		return b
	}
	b.g.Initializers = append(b.g.Initializers, Initializer{Spec: init.Spec.clone(), Data: init.Data})
	return b
}

// AddNode appends a node. All of its non-empty inputs must already have a
// producer.
func (b *Builder) AddNode(n Node) *Builder {
	if b.err != nil {
		return b
	}
	if n.Name != "" {
		if b.nodeNames[n.Name] {
			b.fail(KindDuplicateTensorName, "", n.Name, "node name already used")
			return b
		}
	}
	for _, in := range n.Inputs {
		if in == "" {
			continue // omitted optional input
		}
		if _, ok := b.producers[in]; !ok {
			b.fail(KindDanglingReference, in, n.Name, "input is not produced by a graph input, initializer or earlier node")
			return b
		}
	}
	for _, out := range n.Outputs {
		if out == "" {
			continue
		}
		if !b.produce(out, "node output", n.Name) {
			return b
		}
	}
	if n.Name != "" {
		b.nodeNames[n.Name] = true
	}
	b.g.Nodes = append(b.g.Nodes, n.clone())
	return b
}

// AddOutput declares a graph output. The tensor must be produced by a node
// already added, or be a graph input passed through.
func (b *Builder) AddOutput(spec TensorSpec) *Builder {
	if b.err != nil {
		return b
	}
	if err := spec.Validate(); err != nil {
		b.fail(KindInvalidTensorSpec, spec.Name, "", err.Error())
		return b
	}
	if b.outputs[spec.Name] {
		b.fail(KindDuplicateTensorName, spec.Name, "", "graph output declared twice")
		return b
	}
	producer, ok := b.producers[spec.Name]
	if !ok {
		b.fail(KindDanglingReference, spec.Name, "", "graph output has no producer")
		return b
	}
	if producer == "initializer" {
		b.fail(KindDuplicateTensorName, spec.Name, "", "graph output name collides with an initializer")
		return b
	}
	b.outputs[spec.Name] = true
	b.g.Outputs = append(b.g.Outputs, spec.clone())
	return b
}

// AddValueInfo declares the spec of an intermediate tensor. The name is
// resolved when Build is called.
func (b *Builder) AddValueInfo(spec TensorSpec) *Builder {
	if b.err != nil {
		return b
	}
	if err := spec.Validate(); err != nil {
		b.fail(KindInvalidTensorSpec, spec.Name, "", err.Error())
		return b
	}
	for _, vi := range b.g.ValueInfo {
		if vi.Name == spec.Name {
			b.fail(KindDuplicateTensorName, spec.Name, "", "value info declared twice")
			return b
		}
	}
	b.g.ValueInfo = append(b.g.ValueInfo, spec.clone())
	return b
}

// Build returns the assembled graph or the first construction error.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, vi := range b.g.ValueInfo {
		if _, ok := b.producers[vi.Name]; !ok {
			return nil, &ConstructionError{
				Type:    KindDanglingReference,
				Tensor:  vi.Name,
				Details: "value info describes a tensor that is never produced",
			}
		}
	}
	g := b.g
	g.Nodes = append([]Node(nil), b.g.Nodes...)
	g.Inputs = append([]TensorSpec(nil), b.g.Inputs...)
	g.Outputs = append([]TensorSpec(nil), b.g.Outputs...)
	g.Initializers = append([]Initializer(nil), b.g.Initializers...)
	g.ValueInfo = append([]TensorSpec(nil), b.g.ValueInfo...)
	return &g, nil
}

// produce registers a producer for name, failing on a second producer.
func (b *Builder) produce(name, what, node string) bool {
	if prev, ok := b.producers[name]; ok {
		b.fail(KindDuplicateTensorName, name, node, fmt.Sprintf("%s redefines a tensor already produced by %s", what, prev))
		return false
	}
	if node != "" {
		b.producers[name] = fmt.Sprintf("node %q", node)
	} else {
		b.producers[name] = what
	}
	return true
}

func (b *Builder) fail(kind ConstructionKind, tensorName, node, details string) {
	b.err = &ConstructionError{Type: kind, Tensor: tensorName, Node: node, Details: details}
}
