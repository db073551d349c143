package onnx

// The message types below mirror the parts of onnx.proto this package reads
// and writes. Fields not listed are skipped by the parser.

type ModelProto struct {
	IRVersion       int64
	OpsetImport     []OperatorSetID
	ProducerName    string
	ProducerVersion string
	Domain          string
	ModelVersion    int64
	DocString       string
	Graph           *GraphProto
	MetadataProps   []StringStringEntry
}

type GraphProto struct {
	Name         string
	Nodes        []NodeProto // Topologically sorted
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	Initializers []TensorProto
	DocString    string
	ValueInfo    []ValueInfoProto
}

type NodeProto struct {
	Name       string
	OpType     string
	Inputs     []string
	Outputs    []string
	Attributes []AttributeProto
	Domain     string // "" is the default ai.onnx domain
	DocString  string
}

// TensorProto holds initializer data. The encoder always writes RawData;
// the typed slices are only filled when reading files from other tools.
type TensorProto struct {
	Name         string
	DataType     int32
	Dims         []int64
	RawData      []byte
	FloatData    []float32
	Int32Data    []int32 // Also carries 8 and 16 bit types, float16 as bits
	Int64Data    []int64
	DoubleData   []float64
	DocString    string
	ExternalData []StringStringEntry
	DataLocation int32
}

// TensorProto.DataLocation values.
const (
	DataLocationDefault  = 0
	DataLocationExternal = 1
)

type ValueInfoProto struct {
	Name      string
	Type      *TypeProto
	DocString string
}

// TypeProto only carries tensor types; sequence and map values are skipped.
type TypeProto struct {
	TensorType *TensorTypeProto
}

type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto is either a fixed DimValue or a symbolic DimParam.
type DimensionProto struct {
	DimValue int64
	DimParam string
}

type AttributeProto struct {
	Name      string
	Type      int32
	F         float32
	I         int64
	S         []byte
	Floats    []float32
	Ints      []int64
	Strings   [][]byte
	DocString string
}

type OperatorSetID struct {
	Domain  string
	Version int64
}

type StringStringEntry struct {
	Key   string
	Value string
}

// AttributeProto.Type values.
const (
	AttributeProtoUndefined = 0
	AttributeProtoFloat     = 1
	AttributeProtoInt       = 2
	AttributeProtoString    = 3
	AttributeProtoTensor    = 4
	AttributeProtoGraph     = 5
	AttributeProtoFloats    = 6
	AttributeProtoInts      = 7
	AttributeProtoStrings   = 8
)

// Field numbers from onnx.proto.
const (
	// ModelProto
	fieldModelIRVersion       = 1
	fieldModelProducerName    = 2
	fieldModelProducerVersion = 3
	fieldModelDomain          = 4
	fieldModelVersion         = 5
	fieldModelDocString       = 6
	fieldModelGraph           = 7
	fieldModelOpsetImport     = 8
	fieldModelMetadataProps   = 14

	// GraphProto
	fieldGraphNode        = 1
	fieldGraphName        = 2
	fieldGraphInitializer = 5
	fieldGraphDocString   = 10
	fieldGraphInput       = 11
	fieldGraphOutput      = 12
	fieldGraphValueInfo   = 13

	// NodeProto
	fieldNodeInput     = 1
	fieldNodeOutput    = 2
	fieldNodeName      = 3
	fieldNodeOpType    = 4
	fieldNodeAttribute = 5
	fieldNodeDocString = 6
	fieldNodeDomain    = 7

	// AttributeProto
	fieldAttrName      = 1
	fieldAttrF         = 2
	fieldAttrI         = 3
	fieldAttrS         = 4
	fieldAttrFloats    = 7
	fieldAttrInts      = 8
	fieldAttrStrings   = 9
	fieldAttrDocString = 13
	fieldAttrType      = 20

	// TensorProto
	fieldTensorDims         = 1
	fieldTensorDataType     = 2
	fieldTensorFloatData    = 4
	fieldTensorInt32Data    = 5
	fieldTensorInt64Data    = 7
	fieldTensorName         = 8
	fieldTensorRawData      = 9
	fieldTensorDoubleData   = 10
	fieldTensorDocString    = 12
	fieldTensorExternalData = 13
	fieldTensorDataLocation = 14

	// ValueInfoProto, TypeProto, TypeProto.Tensor, TensorShapeProto, Dimension
	fieldValueInfoName      = 1
	fieldValueInfoType      = 2
	fieldValueInfoDocString = 3
	fieldTypeTensorType     = 1
	fieldTensorTypeElemType = 1
	fieldTensorTypeShape    = 2
	fieldShapeDim           = 1
	fieldDimValue           = 1
	fieldDimParam           = 2

	// OperatorSetIdProto, StringStringEntryProto
	fieldOpsetDomain  = 1
	fieldOpsetVersion = 2
	fieldEntryKey     = 1
	fieldEntryValue   = 2
)
