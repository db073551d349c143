// Package graph defines the portable computation-graph model: typed tensor
// specs, operator nodes, constant initializers, the Graph that ties them
// together and the Model wrapper carrying opset and producer metadata.
//
// Graphs are assembled with Builder, which enforces single static assignment
// and declaration-order resolution of node inputs. Values are not mutated
// after Build returns; the Validator re-checks the same invariants for models
// that were decoded from disk or constructed by hand.
package graph

import (
	"fmt"
	"strings"

	"github.com/pashuvision/modelport/internal/tensor"
)

// BatchDim is the symbolic name given to a variable batch axis.
const BatchDim = "batch_size"

// UnknownDim stands for an axis that a decoded model leaves with neither a
// size nor a name.
const UnknownDim = "?"

// Dim is a single tensor dimension: a fixed size or a named symbolic axis.
type Dim struct {
	Value int64  // Fixed size (> 0) when Param is empty
	Param string // Symbolic name, e.g. "batch_size"
}

// Fixed returns a fixed-size dimension.
func Fixed(n int64) Dim {
	return Dim{Value: n}
}

// Symbolic returns a named dimension left for the consumer to bind.
func Symbolic(name string) Dim {
	return Dim{Param: name}
}

// IsSymbolic reports whether the dimension is unresolved.
func (d Dim) IsSymbolic() bool {
	return d.Param != ""
}

// String renders fixed dims as numbers and symbolic dims by name.
func (d Dim) String() string {
	if d.IsSymbolic() {
		return d.Param
	}
	return fmt.Sprint(d.Value)
}

// Dims converts concrete sizes into fixed dimensions.
func Dims(sizes ...int) []Dim {
	dims := make([]Dim, len(sizes))
	for i, s := range sizes {
		dims[i] = Fixed(int64(s))
	}
	return dims
}

// TensorSpec names a tensor and declares its element type and shape.
type TensorSpec struct {
	Name     string
	ElemType tensor.DataType
	Shape    []Dim
}

// Validate checks the spec's local invariants.
func (s TensorSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("tensor name is empty")
	}
	if len(s.Shape) == 0 {
		return fmt.Errorf("tensor %q has rank 0", s.Name)
	}
	symbolic := 0
	for i, d := range s.Shape {
		if d.IsSymbolic() {
			symbolic++
			continue
		}
		if d.Value <= 0 {
			return fmt.Errorf("tensor %q: dimension %d is %d (must be > 0)", s.Name, i, d.Value)
		}
	}
	if symbolic > 1 {
		return fmt.Errorf("tensor %q has %d symbolic dimensions (at most 1)", s.Name, symbolic)
	}
	return nil
}

// Concrete returns the shape as concrete sizes. It fails if any dim is symbolic.
func (s TensorSpec) Concrete() (tensor.Shape, error) {
	shape := make(tensor.Shape, len(s.Shape))
	for i, d := range s.Shape {
		if d.IsSymbolic() {
			return nil, fmt.Errorf("tensor %q: dimension %d is symbolic (%s)", s.Name, i, d.Param)
		}
		shape[i] = int(d.Value)
	}
	return shape, nil
}

// ShapeString renders the shape as [d0, d1, ...].
func (s TensorSpec) ShapeString() string {
	parts := make([]string, len(s.Shape))
	for i, d := range s.Shape {
		parts[i] = d.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s TensorSpec) clone() TensorSpec {
	shape := make([]Dim, len(s.Shape))
	copy(shape, s.Shape)
	s.Shape = shape
	return s
}

// Initializer is a named constant tensor embedded in a graph.
type Initializer struct {
	Spec TensorSpec
	Data *tensor.Raw
}

// NewInitializer builds an initializer whose spec is derived from the buffer.
func NewInitializer(name string, data *tensor.Raw) Initializer {
	dims := make([]Dim, 0, len(data.Shape()))
	for _, d := range data.Shape() {
		dims = append(dims, Fixed(int64(d)))
	}
	return Initializer{
		Spec: TensorSpec{Name: name, ElemType: data.DType(), Shape: dims},
		Data: data,
	}
}

// Name returns the initializer's tensor name.
func (in Initializer) Name() string {
	return in.Spec.Name
}

// Validate checks that the buffer agrees with the declared spec.
func (in Initializer) Validate() error {
	if err := in.Spec.Validate(); err != nil {
		return err
	}
	if in.Data == nil {
		return fmt.Errorf("initializer %q has no data", in.Spec.Name)
	}
	shape, err := in.Spec.Concrete()
	if err != nil {
		return fmt.Errorf("initializer %q: symbolic dimensions are not allowed", in.Spec.Name)
	}
	if in.Data.DType() != in.Spec.ElemType {
		return fmt.Errorf("initializer %q: data is %s, spec declares %s", in.Spec.Name, in.Data.DType(), in.Spec.ElemType)
	}
	if in.Data.NumElements() != shape.NumElements() {
		return fmt.Errorf("initializer %q: %d values for shape %v (want %d)",
			in.Spec.Name, in.Data.NumElements(), shape, shape.NumElements())
	}
	return nil
}

// AttributeType identifies which value field of an Attribute is set.
type AttributeType int

// Attribute value kinds, numbered as ONNX AttributeProto.AttributeType.
const (
	AttrFloat  AttributeType = 1
	AttrInt    AttributeType = 2
	AttrString AttributeType = 3
	AttrFloats AttributeType = 6
	AttrInts   AttributeType = 7
)

// Attribute is a named operator parameter.
type Attribute struct {
	Name   string
	Type   AttributeType
	F      float32
	I      int64
	S      string
	Floats []float32
	Ints   []int64
}

// IntAttr returns an INT attribute.
func IntAttr(name string, v int64) Attribute {
	return Attribute{Name: name, Type: AttrInt, I: v}
}

// FloatAttr returns a FLOAT attribute.
func FloatAttr(name string, v float32) Attribute {
	return Attribute{Name: name, Type: AttrFloat, F: v}
}

// IntsAttr returns an INTS attribute.
func IntsAttr(name string, v ...int64) Attribute {
	return Attribute{Name: name, Type: AttrInts, Ints: v}
}

// StringAttr returns a STRING attribute.
func StringAttr(name, v string) Attribute {
	return Attribute{Name: name, Type: AttrString, S: v}
}

// Node is a single operator application.
type Node struct {
	Name       string
	OpType     string
	Inputs     []string
	Outputs    []string
	Attributes []Attribute
}

// Attr returns the named attribute.
func (n Node) Attr(name string) (Attribute, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

func (n Node) clone() Node {
	n.Inputs = append([]string(nil), n.Inputs...)
	n.Outputs = append([]string(nil), n.Outputs...)
	n.Attributes = append([]Attribute(nil), n.Attributes...)
	return n
}

// Graph is a directed acyclic computation over named tensors.
type Graph struct {
	Name         string
	Nodes        []Node
	Inputs       []TensorSpec
	Outputs      []TensorSpec
	Initializers []Initializer
	ValueInfo    []TensorSpec // Declared specs of intermediate tensors
}

// Input returns the graph input with the given name.
func (g *Graph) Input(name string) (TensorSpec, bool) {
	return findSpec(g.Inputs, name)
}

// Output returns the graph output with the given name.
func (g *Graph) Output(name string) (TensorSpec, bool) {
	return findSpec(g.Outputs, name)
}

// Initializer returns the initializer with the given name.
func (g *Graph) Initializer(name string) (Initializer, bool) {
	for _, in := range g.Initializers {
		if in.Spec.Name == name {
			return in, true
		}
	}
	return Initializer{}, false
}

// OpTypes returns node operator types in declaration order.
func (g *Graph) OpTypes() []string {
	ops := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ops[i] = n.OpType
	}
	return ops
}

func findSpec(specs []TensorSpec, name string) (TensorSpec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return TensorSpec{}, false
}

// Model wraps a graph with the opset it was authored against and producer
// metadata.
type Model struct {
	Graph           *Graph
	OpsetVersion    int64
	IRVersion       int64
	ProducerName    string
	ProducerVersion string
	DocString       string
	Metadata        map[string]string
}
