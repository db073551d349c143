package onnx

import (
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Parse decodes an ONNX ModelProto from its protobuf wire form.
// Unknown fields are skipped.
func Parse(data []byte) (*ModelProto, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to parse model: empty input")
	}
	p := &parser{data: data}
	model := &ModelProto{}
	if err := p.readModelProto(model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// parser walks one protobuf message. Embedded messages get their own parser.
type parser struct {
	data []byte
}

// fields calls fn for each field of the message until the data runs out.
func (p *parser) fields(fn func(num protowire.Number, typ protowire.Type) error) error {
	for {
		num, typ, err := p.readTag()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(num, typ); err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
	}
}

// readModelProto reads ModelProto message.
func (p *parser) readModelProto(m *ModelProto) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		var err error
		switch num {
		case fieldModelIRVersion:
			m.IRVersion, err = p.readInt64(typ)
		case fieldModelProducerName:
			m.ProducerName, err = p.readString(typ)
		case fieldModelProducerVersion:
			m.ProducerVersion, err = p.readString(typ)
		case fieldModelDomain:
			m.Domain, err = p.readString(typ)
		case fieldModelVersion:
			m.ModelVersion, err = p.readInt64(typ)
		case fieldModelDocString:
			m.DocString, err = p.readString(typ)
		case fieldModelGraph:
			m.Graph = &GraphProto{}
			err = p.readEmbedded(typ, func(sub *parser) error { return sub.readGraphProto(m.Graph) })
		case fieldModelOpsetImport:
			var opset OperatorSetID
			err = p.readEmbedded(typ, func(sub *parser) error { return sub.readOperatorSetID(&opset) })
			m.OpsetImport = append(m.OpsetImport, opset)
		case fieldModelMetadataProps:
			var entry StringStringEntry
			err = p.readEmbedded(typ, func(sub *parser) error { return sub.readStringStringEntry(&entry) })
			m.MetadataProps = append(m.MetadataProps, entry)
		default:
			err = p.skipField(num, typ)
		}
		return err
	})
}

// readGraphProto reads GraphProto message.
func (p *parser) readGraphProto(m *GraphProto) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		var err error
		switch num {
		case fieldGraphNode:
			var node NodeProto
			err = p.readEmbedded(typ, func(sub *parser) error { return sub.readNodeProto(&node) })
			m.Nodes = append(m.Nodes, node)
		case fieldGraphName:
			m.Name, err = p.readString(typ)
		case fieldGraphInitializer:
			var t TensorProto
			err = p.readEmbedded(typ, func(sub *parser) error { return sub.readTensorProto(&t) })
			m.Initializers = append(m.Initializers, t)
		case fieldGraphDocString:
			m.DocString, err = p.readString(typ)
		case fieldGraphInput, fieldGraphOutput, fieldGraphValueInfo:
			var vi ValueInfoProto
			err = p.readEmbedded(typ, func(sub *parser) error { return sub.readValueInfoProto(&vi) })
			switch num {
			case fieldGraphInput:
				m.Inputs = append(m.Inputs, vi)
			case fieldGraphOutput:
				m.Outputs = append(m.Outputs, vi)
			default:
				m.ValueInfo = append(m.ValueInfo, vi)
			}
		default:
			err = p.skipField(num, typ)
		}
		return err
	})
}

// readNodeProto reads NodeProto message.
func (p *parser) readNodeProto(m *NodeProto) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		var (
			s   string
			err error
		)
		switch num {
		case fieldNodeInput:
			s, err = p.readString(typ)
			m.Inputs = append(m.Inputs, s)
		case fieldNodeOutput:
			s, err = p.readString(typ)
			m.Outputs = append(m.Outputs, s)
		case fieldNodeName:
			m.Name, err = p.readString(typ)
		case fieldNodeOpType:
			m.OpType, err = p.readString(typ)
		case fieldNodeAttribute:
			var attr AttributeProto
			err = p.readEmbedded(typ, func(sub *parser) error { return sub.readAttributeProto(&attr) })
			m.Attributes = append(m.Attributes, attr)
		case fieldNodeDocString:
			m.DocString, err = p.readString(typ)
		case fieldNodeDomain:
			m.Domain, err = p.readString(typ)
		default:
			err = p.skipField(num, typ)
		}
		return err
	})
}

// readTensorProto reads TensorProto message.
func (p *parser) readTensorProto(m *TensorProto) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		var err error
		switch num {
		case fieldTensorDims:
			m.Dims, err = p.readInt64s(typ, m.Dims)
		case fieldTensorDataType:
			m.DataType, err = p.readInt32(typ)
		case fieldTensorFloatData:
			m.FloatData, err = p.readFloat32s(typ, m.FloatData)
		case fieldTensorInt32Data:
			var vs []int64
			vs, err = p.readInt64s(typ, nil)
			for _, v := range vs {
				m.Int32Data = append(m.Int32Data, int32(v)) //nolint:gosec // G115: int32_data is declared int32 in onnx.proto.
			}
		case fieldTensorInt64Data:
			m.Int64Data, err = p.readInt64s(typ, m.Int64Data)
		case fieldTensorName:
			m.Name, err = p.readString(typ)
		case fieldTensorRawData:
			m.RawData, err = p.readBytes(typ)
		case fieldTensorDoubleData:
			m.DoubleData, err = p.readFloat64s(typ, m.DoubleData)
		case fieldTensorDocString:
			m.DocString, err = p.readString(typ)
		case fieldTensorExternalData:
			var entry StringStringEntry
			err = p.readEmbedded(typ, func(sub *parser) error { return sub.readStringStringEntry(&entry) })
			m.ExternalData = append(m.ExternalData, entry)
		case fieldTensorDataLocation:
			m.DataLocation, err = p.readInt32(typ)
		default:
			err = p.skipField(num, typ)
		}
		return err
	})
}

// readValueInfoProto reads ValueInfoProto message.
func (p *parser) readValueInfoProto(m *ValueInfoProto) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		var err error
		switch num {
		case fieldValueInfoName:
			m.Name, err = p.readString(typ)
		case fieldValueInfoType:
			m.Type = &TypeProto{}
			err = p.readEmbedded(typ, func(sub *parser) error { return sub.readTypeProto(m.Type) })
		case fieldValueInfoDocString:
			m.DocString, err = p.readString(typ)
		default:
			err = p.skipField(num, typ)
		}
		return err
	})
}

// readTypeProto reads TypeProto message.
func (p *parser) readTypeProto(m *TypeProto) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		if num != fieldTypeTensorType {
			return p.skipField(num, typ)
		}
		m.TensorType = &TensorTypeProto{}
		return p.readEmbedded(typ, func(sub *parser) error { return sub.readTensorTypeProto(m.TensorType) })
	})
}

// readTensorTypeProto reads TensorTypeProto message.
func (p *parser) readTensorTypeProto(m *TensorTypeProto) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		var err error
		switch num {
		case fieldTensorTypeElemType:
			m.ElemType, err = p.readInt32(typ)
		case fieldTensorTypeShape:
			m.Shape = &TensorShapeProto{}
			err = p.readEmbedded(typ, func(sub *parser) error { return sub.readTensorShapeProto(m.Shape) })
		default:
			err = p.skipField(num, typ)
		}
		return err
	})
}

// readTensorShapeProto reads TensorShapeProto message.
func (p *parser) readTensorShapeProto(m *TensorShapeProto) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		if num != fieldShapeDim {
			return p.skipField(num, typ)
		}
		var dim DimensionProto
		err := p.readEmbedded(typ, func(sub *parser) error { return sub.readDimensionProto(&dim) })
		m.Dims = append(m.Dims, dim)
		return err
	})
}

// readDimensionProto reads DimensionProto message.
func (p *parser) readDimensionProto(m *DimensionProto) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		var err error
		switch num {
		case fieldDimValue:
			m.DimValue, err = p.readInt64(typ)
		case fieldDimParam:
			m.DimParam, err = p.readString(typ)
		default:
			err = p.skipField(num, typ)
		}
		return err
	})
}

// readAttributeProto reads AttributeProto message.
func (p *parser) readAttributeProto(m *AttributeProto) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		var err error
		switch num {
		case fieldAttrName:
			m.Name, err = p.readString(typ)
		case fieldAttrF:
			m.F, err = p.readFloat32(typ)
		case fieldAttrI:
			m.I, err = p.readInt64(typ)
		case fieldAttrS:
			m.S, err = p.readBytes(typ)
		case fieldAttrFloats:
			m.Floats, err = p.readFloat32s(typ, m.Floats)
		case fieldAttrInts:
			m.Ints, err = p.readInt64s(typ, m.Ints)
		case fieldAttrStrings:
			var s []byte
			s, err = p.readBytes(typ)
			m.Strings = append(m.Strings, s)
		case fieldAttrDocString:
			m.DocString, err = p.readString(typ)
		case fieldAttrType:
			m.Type, err = p.readInt32(typ)
		default:
			err = p.skipField(num, typ)
		}
		return err
	})
}

// readOperatorSetID reads OperatorSetID message.
func (p *parser) readOperatorSetID(m *OperatorSetID) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		var err error
		switch num {
		case fieldOpsetDomain:
			m.Domain, err = p.readString(typ)
		case fieldOpsetVersion:
			m.Version, err = p.readInt64(typ)
		default:
			err = p.skipField(num, typ)
		}
		return err
	})
}

// readStringStringEntry reads StringStringEntry message.
func (p *parser) readStringStringEntry(m *StringStringEntry) error {
	return p.fields(func(num protowire.Number, typ protowire.Type) error {
		var err error
		switch num {
		case fieldEntryKey:
			m.Key, err = p.readString(typ)
		case fieldEntryValue:
			m.Value, err = p.readString(typ)
		default:
			err = p.skipField(num, typ)
		}
		return err
	})
}

// readTag reads a protobuf field tag. It returns io.EOF at the end of the message.
func (p *parser) readTag() (protowire.Number, protowire.Type, error) {
	if len(p.data) == 0 {
		return 0, 0, io.EOF
	}
	num, typ, n := protowire.ConsumeTag(p.data)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	p.data = p.data[n:]
	return num, typ, nil
}

func expect(got, want protowire.Type) error {
	if got != want {
		return fmt.Errorf("wire type %d, want %d", got, want)
	}
	return nil
}

// readVarint reads a varint-encoded value.
func (p *parser) readVarint(typ protowire.Type) (uint64, error) {
	if err := expect(typ, protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(p.data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	p.data = p.data[n:]
	return v, nil
}

func (p *parser) readInt64(typ protowire.Type) (int64, error) {
	v, err := p.readVarint(typ)
	return int64(v), err //nolint:gosec // G115: two's complement reinterpretation per protobuf int64.
}

func (p *parser) readInt32(typ protowire.Type) (int32, error) {
	v, err := p.readVarint(typ)
	return int32(v), err //nolint:gosec // G115: protobuf int32 is sign-extended to 64 bits on the wire.
}

// readBytes reads a length-delimited byte slice. The result aliases the input.
func (p *parser) readBytes(typ protowire.Type) ([]byte, error) {
	if err := expect(typ, protowire.BytesType); err != nil {
		return nil, err
	}
	b, n := protowire.ConsumeBytes(p.data)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	p.data = p.data[n:]
	return b, nil
}

func (p *parser) readString(typ protowire.Type) (string, error) {
	b, err := p.readBytes(typ)
	return string(b), err
}

// readFloat32 reads a fixed32 float.
func (p *parser) readFloat32(typ protowire.Type) (float32, error) {
	if err := expect(typ, protowire.Fixed32Type); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeFixed32(p.data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	p.data = p.data[n:]
	return math.Float32frombits(v), nil
}

// readEmbedded reads a length-delimited submessage with fn.
func (p *parser) readEmbedded(typ protowire.Type, fn func(sub *parser) error) error {
	b, err := p.readBytes(typ)
	if err != nil {
		return err
	}
	return fn(&parser{data: b})
}

// readInt64s appends a repeated int64 field in packed or unpacked form.
func (p *parser) readInt64s(typ protowire.Type, dst []int64) ([]int64, error) {
	if typ == protowire.VarintType {
		v, err := p.readInt64(typ)
		return append(dst, v), err
	}
	b, err := p.readBytes(typ)
	if err != nil {
		return dst, err
	}
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return dst, protowire.ParseError(n)
		}
		dst = append(dst, int64(v)) //nolint:gosec // G115: two's complement reinterpretation per protobuf int64.
		b = b[n:]
	}
	return dst, nil
}

// readFloat32s appends a repeated float field in packed or unpacked form.
func (p *parser) readFloat32s(typ protowire.Type, dst []float32) ([]float32, error) {
	if typ == protowire.Fixed32Type {
		v, err := p.readFloat32(typ)
		return append(dst, v), err
	}
	b, err := p.readBytes(typ)
	if err != nil {
		return dst, err
	}
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return dst, protowire.ParseError(n)
		}
		dst = append(dst, math.Float32frombits(v))
		b = b[n:]
	}
	return dst, nil
}

// readFloat64s appends a repeated double field in packed or unpacked form.
func (p *parser) readFloat64s(typ protowire.Type, dst []float64) ([]float64, error) {
	if typ == protowire.Fixed64Type {
		v, n := protowire.ConsumeFixed64(p.data)
		if n < 0 {
			return dst, protowire.ParseError(n)
		}
		p.data = p.data[n:]
		return append(dst, math.Float64frombits(v)), nil
	}
	b, err := p.readBytes(typ)
	if err != nil {
		return dst, err
	}
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return dst, protowire.ParseError(n)
		}
		dst = append(dst, math.Float64frombits(v))
		b = b[n:]
	}
	return dst, nil
}

// skipField skips a field based on wire type.
func (p *parser) skipField(num protowire.Number, typ protowire.Type) error {
	n := protowire.ConsumeFieldValue(num, typ, p.data)
	if n < 0 {
		return protowire.ParseError(n)
	}
	p.data = p.data[n:]
	return nil
}
