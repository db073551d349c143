package onnx

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/tensor"
)

// DefaultIRVersion is written when a model does not set one. IR 7 is the
// version paired with opsets 12 and 13 and is readable by every runtime that
// accepts opset 11.
const DefaultIRVersion = 7

// Encode serializes a graph model into ONNX protobuf bytes.
func Encode(m *graph.Model) ([]byte, error) {
	p, err := FromModel(m)
	if err != nil {
		return nil, err
	}
	return Marshal(p), nil
}

// Decode parses ONNX protobuf bytes into a graph model. The result is not
// validated; run it through the validator before trusting it.
func Decode(data []byte) (*graph.Model, error) {
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return ToModel(p)
}

// FromModel converts a graph model into its wire structure.
func FromModel(m *graph.Model) (*ModelProto, error) {
	if m == nil || m.Graph == nil {
		return nil, fmt.Errorf("model has no graph")
	}
	irVersion := m.IRVersion
	if irVersion == 0 {
		irVersion = DefaultIRVersion
	}

	g := m.Graph
	gp := &GraphProto{Name: g.Name}
	for _, n := range g.Nodes {
		np := NodeProto{
			Name:    n.Name,
			OpType:  n.OpType,
			Inputs:  append([]string(nil), n.Inputs...),
			Outputs: append([]string(nil), n.Outputs...),
		}
		for _, a := range n.Attributes {
			np.Attributes = append(np.Attributes, attributeToProto(a))
		}
		gp.Nodes = append(gp.Nodes, np)
	}
	for _, in := range g.Inputs {
		gp.Inputs = append(gp.Inputs, specToProto(in))
	}
	for _, out := range g.Outputs {
		gp.Outputs = append(gp.Outputs, specToProto(out))
	}
	for _, vi := range g.ValueInfo {
		gp.ValueInfo = append(gp.ValueInfo, specToProto(vi))
	}
	for _, init := range g.Initializers {
		if init.Data == nil {
			return nil, fmt.Errorf("initializer %q has no data", init.Name())
		}
		gp.Initializers = append(gp.Initializers, TensorProto{
			Name:     init.Name(),
			DataType: init.Data.DType().ONNXCode(),
			Dims:     init.Data.Shape().Int64s(),
			RawData:  init.Data.Data(),
		})
	}

	mp := &ModelProto{
		IRVersion:       irVersion,
		OpsetImport:     []OperatorSetID{{Version: m.OpsetVersion}},
		ProducerName:    m.ProducerName,
		ProducerVersion: m.ProducerVersion,
		DocString:       m.DocString,
		Graph:           gp,
	}
	keys := make([]string, 0, len(m.Metadata))
	for k := range m.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		mp.MetadataProps = append(mp.MetadataProps, StringStringEntry{Key: k, Value: m.Metadata[k]})
	}
	return mp, nil
}

// ToModel converts a wire structure into a graph model. The default-domain
// opset import sets OpsetVersion; it is 0 when the import is missing.
func ToModel(p *ModelProto) (*graph.Model, error) {
	if p.Graph == nil {
		return nil, fmt.Errorf("model has no graph")
	}
	m := &graph.Model{
		IRVersion:       p.IRVersion,
		ProducerName:    p.ProducerName,
		ProducerVersion: p.ProducerVersion,
		DocString:       p.DocString,
	}
	for _, opset := range p.OpsetImport {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			m.OpsetVersion = opset.Version
		}
	}
	if len(p.MetadataProps) > 0 {
		m.Metadata = make(map[string]string, len(p.MetadataProps))
		for _, e := range p.MetadataProps {
			m.Metadata[e.Key] = e.Value
		}
	}

	gp := p.Graph
	g := &graph.Graph{Name: gp.Name}
	for _, np := range gp.Nodes {
		n := graph.Node{
			Name:    np.Name,
			OpType:  np.OpType,
			Inputs:  np.Inputs,
			Outputs: np.Outputs,
		}
		for _, ap := range np.Attributes {
			n.Attributes = append(n.Attributes, attributeFromProto(ap))
		}
		g.Nodes = append(g.Nodes, n)
	}

	var err error
	if g.Inputs, err = specsFromProto(gp.Inputs); err != nil {
		return nil, fmt.Errorf("graph input: %w", err)
	}
	if g.Outputs, err = specsFromProto(gp.Outputs); err != nil {
		return nil, fmt.Errorf("graph output: %w", err)
	}
	if g.ValueInfo, err = specsFromProto(gp.ValueInfo); err != nil {
		return nil, fmt.Errorf("value info: %w", err)
	}
	for i := range gp.Initializers {
		init, err := initializerFromProto(&gp.Initializers[i])
		if err != nil {
			return nil, err
		}
		g.Initializers = append(g.Initializers, init)
	}
	m.Graph = g
	return m, nil
}

func specToProto(s graph.TensorSpec) ValueInfoProto {
	shape := &TensorShapeProto{}
	for _, d := range s.Shape {
		if d.Param == graph.UnknownDim {
			shape.Dims = append(shape.Dims, DimensionProto{})
			continue
		}
		shape.Dims = append(shape.Dims, DimensionProto{DimValue: d.Value, DimParam: d.Param})
	}
	return ValueInfoProto{
		Name: s.Name,
		Type: &TypeProto{TensorType: &TensorTypeProto{
			ElemType: s.ElemType.ONNXCode(),
			Shape:    shape,
		}},
	}
}

func specsFromProto(vis []ValueInfoProto) ([]graph.TensorSpec, error) {
	var specs []graph.TensorSpec
	for _, vi := range vis {
		spec := graph.TensorSpec{Name: vi.Name}
		if vi.Type == nil || vi.Type.TensorType == nil {
			return nil, fmt.Errorf("%q is not a tensor", vi.Name)
		}
		tt := vi.Type.TensorType
		dtype, err := tensor.FromONNXCode(tt.ElemType)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", vi.Name, err)
		}
		spec.ElemType = dtype
		if tt.Shape != nil {
			for _, d := range tt.Shape.Dims {
				if d.DimValue == 0 && d.DimParam == "" {
					spec.Shape = append(spec.Shape, graph.Symbolic(graph.UnknownDim))
					continue
				}
				spec.Shape = append(spec.Shape, graph.Dim{Value: d.DimValue, Param: d.DimParam})
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func initializerFromProto(tp *TensorProto) (graph.Initializer, error) {
	fail := func(format string, args ...any) error {
		return &graph.ConstructionError{
			Type:    graph.KindInvalidInitializer,
			Tensor:  tp.Name,
			Details: fmt.Sprintf(format, args...),
		}
	}
	if tp.DataLocation == DataLocationExternal || len(tp.ExternalData) > 0 {
		return graph.Initializer{}, fail("external data is not supported")
	}
	dtype, err := tensor.FromONNXCode(tp.DataType)
	if err != nil {
		return graph.Initializer{}, fail("%v", err)
	}
	shape := make(tensor.Shape, len(tp.Dims))
	for i, d := range tp.Dims {
		shape[i] = int(d)
	}
	if err := shape.Validate(); err != nil {
		return graph.Initializer{}, fail("%v", err)
	}
	n := shape.NumElements()
	count := func(got int) error {
		if got != n {
			return fail("%d values for shape %v (want %d)", got, shape, n)
		}
		return nil
	}

	var raw *tensor.Raw
	switch {
	case len(tp.RawData) > 0:
		raw, err = tensor.FromBytes(shape, dtype, tp.RawData)
	case len(tp.FloatData) > 0:
		if dtype != tensor.Float32 {
			return graph.Initializer{}, fail("float_data holds %s values", dtype)
		}
		if err := count(len(tp.FloatData)); err != nil {
			return graph.Initializer{}, err
		}
		raw, err = tensor.FromFloat32(shape, dtype, tp.FloatData)
	case len(tp.DoubleData) > 0:
		if dtype != tensor.Float64 {
			return graph.Initializer{}, fail("double_data holds %s values", dtype)
		}
		if err := count(len(tp.DoubleData)); err != nil {
			return graph.Initializer{}, err
		}
		buf := make([]byte, 8*n)
		for i, v := range tp.DoubleData {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		raw, err = tensor.FromBytes(shape, dtype, buf)
	case len(tp.Int64Data) > 0:
		if dtype != tensor.Int64 {
			return graph.Initializer{}, fail("int64_data holds %s values", dtype)
		}
		if err := count(len(tp.Int64Data)); err != nil {
			return graph.Initializer{}, err
		}
		raw, err = tensor.FromInt64(shape, tp.Int64Data)
	case len(tp.Int32Data) > 0:
		if err := count(len(tp.Int32Data)); err != nil {
			return graph.Initializer{}, err
		}
		var buf []byte
		buf, err = packInt32Data(dtype, tp.Int32Data)
		if err != nil {
			return graph.Initializer{}, fail("%v", err)
		}
		raw, err = tensor.FromBytes(shape, dtype, buf)
	default:
		return graph.Initializer{}, fail("no data for %d elements", n)
	}
	if err != nil {
		return graph.Initializer{}, fail("%v", err)
	}
	return graph.NewInitializer(tp.Name, raw), nil
}

// packInt32Data narrows int32_data values to the element width of dtype.
// Float16 values arrive as their bit patterns in the low 16 bits.
func packInt32Data(dtype tensor.DataType, vs []int32) ([]byte, error) {
	size := dtype.Size()
	buf := make([]byte, size*len(vs))
	for i, v := range vs {
		switch dtype {
		case tensor.Int32:
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(v)) //nolint:gosec // G115: bit-preserving reinterpretation.
		case tensor.Float16:
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(v)) //nolint:gosec // G115: low 16 bits carry the half-precision value.
		case tensor.Uint8, tensor.Bool:
			buf[i] = byte(v) //nolint:gosec // G115: low 8 bits carry the value.
		default:
			return nil, fmt.Errorf("int32_data holds %s values", dtype)
		}
	}
	return buf, nil
}

func attributeToProto(a graph.Attribute) AttributeProto {
	ap := AttributeProto{Name: a.Name, Type: int32(a.Type)}
	switch a.Type {
	case graph.AttrFloat:
		ap.F = a.F
	case graph.AttrInt:
		ap.I = a.I
	case graph.AttrString:
		ap.S = []byte(a.S)
	case graph.AttrFloats:
		ap.Floats = append([]float32(nil), a.Floats...)
	case graph.AttrInts:
		ap.Ints = append([]int64(nil), a.Ints...)
	}
	return ap
}

// attributeFromProto keeps the scalar and list kinds graph.Attribute models.
// Tensor, graph and string-list attributes come back with only name and type.
func attributeFromProto(ap AttributeProto) graph.Attribute {
	return graph.Attribute{
		Name:   ap.Name,
		Type:   graph.AttributeType(ap.Type),
		F:      ap.F,
		I:      ap.I,
		S:      string(ap.S),
		Floats: ap.Floats,
		Ints:   ap.Ints,
	}
}
