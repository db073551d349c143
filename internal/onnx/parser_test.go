package onnx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// TestParseSimpleAdd tests parsing a hand-assembled Add model.
func TestParseSimpleAdd(t *testing.T) {
	model, err := Parse(buildSimpleAddModel())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if model.IRVersion != 7 {
		t.Errorf("Expected IR version 7, got %d", model.IRVersion)
	}
	if model.Graph == nil {
		t.Fatal("Graph is nil")
	}
	if len(model.Graph.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(model.Graph.Nodes))
	}

	node := model.Graph.Nodes[0]
	assert.Equal(t, "Add", node.OpType)
	assert.Equal(t, []string{"X", "Y"}, node.Inputs)
	assert.Equal(t, []string{"Z"}, node.Outputs)

	require.Len(t, model.OpsetImport, 1)
	assert.Equal(t, int64(13), model.OpsetImport[0].Version)

	require.Len(t, model.Graph.Inputs, 2)
	dims := model.Graph.Inputs[0].Type.TensorType.Shape.Dims
	require.Len(t, dims, 2)
	assert.Equal(t, "batch_size", dims[0].DimParam)
	assert.Equal(t, int64(784), dims[1].DimValue)
}

// TestParseLegacyTensorFields covers packed dims and float_data.
func TestParseLegacyTensorFields(t *testing.T) {
	var tensor []byte
	// dims, packed
	var packed []byte
	packed = protowire.AppendVarint(packed, 2)
	packed = protowire.AppendVarint(packed, 2)
	tensor = protowire.AppendTag(tensor, fieldTensorDims, protowire.BytesType)
	tensor = protowire.AppendBytes(tensor, packed)
	tensor = protowire.AppendTag(tensor, fieldTensorDataType, protowire.VarintType)
	tensor = protowire.AppendVarint(tensor, 1)
	// float_data, packed
	var floats []byte
	for _, f := range []float32{1, 2, 3, 4} {
		floats = protowire.AppendFixed32(floats, math.Float32bits(f))
	}
	tensor = protowire.AppendTag(tensor, fieldTensorFloatData, protowire.BytesType)
	tensor = protowire.AppendBytes(tensor, floats)
	tensor = appendString(tensor, fieldTensorName, "W")

	graph := appendMessage(nil, fieldGraphInitializer, tensor)
	data := appendVarint(nil, fieldModelIRVersion, 7)
	data = appendMessage(data, fieldModelGraph, graph)

	model, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, model.Graph.Initializers, 1)

	init := model.Graph.Initializers[0]
	assert.Equal(t, "W", init.Name)
	assert.Equal(t, []int64{2, 2}, init.Dims)
	assert.Equal(t, []float32{1, 2, 3, 4}, init.FloatData)
}

// TestParseAttributes covers every attribute kind, packed and unpacked.
func TestParseAttributes(t *testing.T) {
	var ints []byte
	ints = protowire.AppendVarint(ints, 3)
	ints = protowire.AppendVarint(ints, 3)

	attrs := [][]byte{
		appendVarint(appendString(nil, fieldAttrName, "axis"), fieldAttrI, 1),
		func() []byte {
			b := appendString(nil, fieldAttrName, "kernel_shape")
			b = protowire.AppendTag(b, fieldAttrInts, protowire.BytesType)
			return protowire.AppendBytes(b, ints)
		}(),
		func() []byte {
			b := appendString(nil, fieldAttrName, "epsilon")
			b = protowire.AppendTag(b, fieldAttrF, protowire.Fixed32Type)
			return protowire.AppendFixed32(b, math.Float32bits(1e-5))
		}(),
		func() []byte {
			b := appendString(nil, fieldAttrName, "auto_pad")
			b = protowire.AppendTag(b, fieldAttrS, protowire.BytesType)
			return protowire.AppendString(b, "NOTSET")
		}(),
	}

	var node []byte
	node = appendString(node, fieldNodeOpType, "Conv")
	for _, a := range attrs {
		node = appendMessage(node, fieldNodeAttribute, a)
	}
	data := appendMessage(nil, fieldModelGraph, appendMessage(nil, fieldGraphNode, node))

	model, err := Parse(data)
	require.NoError(t, err)
	got := model.Graph.Nodes[0].Attributes
	require.Len(t, got, 4)

	assert.Equal(t, int64(1), got[0].I)
	assert.Equal(t, []int64{3, 3}, got[1].Ints)
	assert.InDelta(t, 1e-5, got[2].F, 1e-9)
	assert.Equal(t, "NOTSET", string(got[3].S))
}

func TestParseSkipsUnknownFields(t *testing.T) {
	data := appendVarint(nil, fieldModelIRVersion, 8)
	data = protowire.AppendTag(data, 99, protowire.Fixed64Type)
	data = protowire.AppendFixed64(data, 42)
	data = appendString(data, 100, "ignored")
	data = appendString(data, fieldModelProducerName, "tool")

	model, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, int64(8), model.IRVersion)
	assert.Equal(t, "tool", model.ProducerName)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte{0xFF, 0xFF, 0xFF}},
		{"truncated string", append(protowire.AppendTag(nil, fieldModelProducerName, protowire.BytesType), 10, 'a')},
		{"wrong wire type", protowire.AppendVarint(protowire.AppendTag(nil, fieldModelGraph, protowire.VarintType), 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			assert.Error(t, err)
		})
	}
}

// buildSimpleAddModel creates a minimal ONNX model: Z = X + Y.
func buildSimpleAddModel() []byte {
	var opset []byte
	opset = appendVarint(opset, fieldOpsetVersion, 13)

	var node []byte
	for _, in := range []string{"X", "Y"} {
		node = appendString(node, fieldNodeInput, in)
	}
	node = appendString(node, fieldNodeOutput, "Z")
	node = appendString(node, fieldNodeOpType, "Add")

	var graph []byte
	graph = appendString(graph, fieldGraphName, "simple_add")
	graph = appendMessage(graph, fieldGraphNode, node)
	graph = appendMessage(graph, fieldGraphInput, buildValueInfo("X", 1, "batch_size", 784))
	graph = appendMessage(graph, fieldGraphInput, buildValueInfo("Y", 1, "batch_size", 784))
	graph = appendMessage(graph, fieldGraphOutput, buildValueInfo("Z", 1, "batch_size", 784))

	var model []byte
	model = appendVarint(model, fieldModelIRVersion, 7)
	model = appendMessage(model, fieldModelOpsetImport, opset)
	model = appendMessage(model, fieldModelGraph, graph)
	return model
}

// buildValueInfo encodes a ValueInfoProto whose first dim is symbolic.
func buildValueInfo(name string, elemType int64, batch string, rest ...int64) []byte {
	var shape []byte
	shape = appendMessage(shape, fieldShapeDim, appendString(nil, fieldDimParam, batch))
	for _, d := range rest {
		shape = appendMessage(shape, fieldShapeDim, appendVarint(nil, fieldDimValue, d))
	}
	var tt []byte
	tt = appendVarint(tt, fieldTensorTypeElemType, elemType)
	tt = appendMessage(tt, fieldTensorTypeShape, shape)

	var vi []byte
	vi = appendString(vi, fieldValueInfoName, name)
	vi = appendMessage(vi, fieldValueInfoType, appendMessage(nil, fieldTypeTensorType, tt))
	return vi
}
