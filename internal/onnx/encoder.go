package onnx

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal encodes a ModelProto into protobuf wire form. Fields are written in
// field-number order and zero-valued scalars are omitted, so equal models
// produce identical bytes.
func Marshal(m *ModelProto) []byte {
	var b []byte
	b = appendVarint(b, fieldModelIRVersion, m.IRVersion)
	b = appendString(b, fieldModelProducerName, m.ProducerName)
	b = appendString(b, fieldModelProducerVersion, m.ProducerVersion)
	b = appendString(b, fieldModelDomain, m.Domain)
	b = appendVarint(b, fieldModelVersion, m.ModelVersion)
	b = appendString(b, fieldModelDocString, m.DocString)
	if m.Graph != nil {
		b = appendMessage(b, fieldModelGraph, marshalGraph(m.Graph))
	}
	for _, opset := range m.OpsetImport {
		var sub []byte
		sub = appendString(sub, fieldOpsetDomain, opset.Domain)
		sub = appendVarint(sub, fieldOpsetVersion, opset.Version)
		b = appendMessage(b, fieldModelOpsetImport, sub)
	}
	for _, entry := range m.MetadataProps {
		var sub []byte
		sub = appendString(sub, fieldEntryKey, entry.Key)
		sub = appendString(sub, fieldEntryValue, entry.Value)
		b = appendMessage(b, fieldModelMetadataProps, sub)
	}
	return b
}

func marshalGraph(g *GraphProto) []byte {
	var b []byte
	for i := range g.Nodes {
		b = appendMessage(b, fieldGraphNode, marshalNode(&g.Nodes[i]))
	}
	b = appendString(b, fieldGraphName, g.Name)
	for i := range g.Initializers {
		b = appendMessage(b, fieldGraphInitializer, marshalTensor(&g.Initializers[i]))
	}
	b = appendString(b, fieldGraphDocString, g.DocString)
	for i := range g.Inputs {
		b = appendMessage(b, fieldGraphInput, marshalValueInfo(&g.Inputs[i]))
	}
	for i := range g.Outputs {
		b = appendMessage(b, fieldGraphOutput, marshalValueInfo(&g.Outputs[i]))
	}
	for i := range g.ValueInfo {
		b = appendMessage(b, fieldGraphValueInfo, marshalValueInfo(&g.ValueInfo[i]))
	}
	return b
}

func marshalNode(n *NodeProto) []byte {
	var b []byte
	// Empty names are kept: they mark omitted optional inputs and outputs.
	for _, in := range n.Inputs {
		b = protowire.AppendTag(b, fieldNodeInput, protowire.BytesType)
		b = protowire.AppendString(b, in)
	}
	for _, out := range n.Outputs {
		b = protowire.AppendTag(b, fieldNodeOutput, protowire.BytesType)
		b = protowire.AppendString(b, out)
	}
	b = appendString(b, fieldNodeName, n.Name)
	b = appendString(b, fieldNodeOpType, n.OpType)
	for i := range n.Attributes {
		b = appendMessage(b, fieldNodeAttribute, marshalAttribute(&n.Attributes[i]))
	}
	b = appendString(b, fieldNodeDocString, n.DocString)
	b = appendString(b, fieldNodeDomain, n.Domain)
	return b
}

func marshalAttribute(a *AttributeProto) []byte {
	var b []byte
	b = appendString(b, fieldAttrName, a.Name)
	switch a.Type {
	case AttributeProtoFloat:
		b = protowire.AppendTag(b, fieldAttrF, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(a.F))
	case AttributeProtoInt:
		b = protowire.AppendTag(b, fieldAttrI, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(a.I)) //nolint:gosec // G115: protobuf int64 encoding.
	case AttributeProtoString:
		b = protowire.AppendTag(b, fieldAttrS, protowire.BytesType)
		b = protowire.AppendBytes(b, a.S)
	case AttributeProtoFloats:
		for _, f := range a.Floats {
			b = protowire.AppendTag(b, fieldAttrFloats, protowire.Fixed32Type)
			b = protowire.AppendFixed32(b, math.Float32bits(f))
		}
	case AttributeProtoInts:
		for _, v := range a.Ints {
			b = protowire.AppendTag(b, fieldAttrInts, protowire.VarintType)
			b = protowire.AppendVarint(b, uint64(v)) //nolint:gosec // G115: protobuf int64 encoding.
		}
	case AttributeProtoStrings:
		for _, s := range a.Strings {
			b = protowire.AppendTag(b, fieldAttrStrings, protowire.BytesType)
			b = protowire.AppendBytes(b, s)
		}
	}
	b = appendString(b, fieldAttrDocString, a.DocString)
	b = appendVarint(b, fieldAttrType, int64(a.Type))
	return b
}

func marshalTensor(t *TensorProto) []byte {
	var b []byte
	for _, d := range t.Dims {
		b = protowire.AppendTag(b, fieldTensorDims, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d)) //nolint:gosec // G115: protobuf int64 encoding.
	}
	b = appendVarint(b, fieldTensorDataType, int64(t.DataType))
	if len(t.FloatData) > 0 {
		var packed []byte
		for _, v := range t.FloatData {
			packed = protowire.AppendFixed32(packed, math.Float32bits(v))
		}
		b = appendMessage(b, fieldTensorFloatData, packed)
	}
	if len(t.Int32Data) > 0 {
		var packed []byte
		for _, v := range t.Int32Data {
			packed = protowire.AppendVarint(packed, uint64(v)) //nolint:gosec // G115: protobuf int32 is sign-extended.
		}
		b = appendMessage(b, fieldTensorInt32Data, packed)
	}
	if len(t.Int64Data) > 0 {
		var packed []byte
		for _, v := range t.Int64Data {
			packed = protowire.AppendVarint(packed, uint64(v)) //nolint:gosec // G115: protobuf int64 encoding.
		}
		b = appendMessage(b, fieldTensorInt64Data, packed)
	}
	b = appendString(b, fieldTensorName, t.Name)
	if len(t.RawData) > 0 {
		b = protowire.AppendTag(b, fieldTensorRawData, protowire.BytesType)
		b = protowire.AppendBytes(b, t.RawData)
	}
	if len(t.DoubleData) > 0 {
		var packed []byte
		for _, v := range t.DoubleData {
			packed = protowire.AppendFixed64(packed, math.Float64bits(v))
		}
		b = appendMessage(b, fieldTensorDoubleData, packed)
	}
	b = appendString(b, fieldTensorDocString, t.DocString)
	for _, e := range t.ExternalData {
		var eb []byte
		eb = appendString(eb, fieldEntryKey, e.Key)
		eb = appendString(eb, fieldEntryValue, e.Value)
		b = appendMessage(b, fieldTensorExternalData, eb)
	}
	b = appendVarint(b, fieldTensorDataLocation, int64(t.DataLocation))
	return b
}

func marshalValueInfo(vi *ValueInfoProto) []byte {
	var b []byte
	b = appendString(b, fieldValueInfoName, vi.Name)
	if vi.Type != nil && vi.Type.TensorType != nil {
		tt := vi.Type.TensorType
		var tb []byte
		tb = appendVarint(tb, fieldTensorTypeElemType, int64(tt.ElemType))
		if tt.Shape != nil {
			var sb []byte
			for _, d := range tt.Shape.Dims {
				var db []byte
				switch {
				case d.DimParam != "":
					db = appendString(db, fieldDimParam, d.DimParam)
				case d.DimValue != 0:
					db = protowire.AppendTag(db, fieldDimValue, protowire.VarintType)
					db = protowire.AppendVarint(db, uint64(d.DimValue)) //nolint:gosec // G115: protobuf int64 encoding.
				}
				sb = appendMessage(sb, fieldShapeDim, db)
			}
			tb = appendMessage(tb, fieldTensorTypeShape, sb)
		}
		var typ []byte
		typ = appendMessage(typ, fieldTypeTensorType, tb)
		b = appendMessage(b, fieldValueInfoType, typ)
	}
	b = appendString(b, fieldValueInfoDocString, vi.DocString)
	return b
}

// appendVarint writes a varint field, omitting zero.
func appendVarint(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v)) //nolint:gosec // G115: protobuf int64 encoding.
}

// appendString writes a string field, omitting the empty string.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}
