// Package onnx reads and writes ONNX model files.
//
// ONNX (Open Neural Network Exchange) stores a model as a protobuf ModelProto.
// This package mirrors the subset of onnx.proto that graph export needs as plain
// Go structs and moves them to and from the wire with protowire, so no
// generated code is required.
//
// Key components:
//   - ModelProto, GraphProto, NodeProto, TensorProto, ValueInfoProto: wire structs
//   - Parse / Marshal: protobuf bytes to wire structs and back
//   - ToModel / FromModel: wire structs to graph.Model and back
//   - Encode / Decode: the two steps combined
//
// Initializers are always written as raw_data. The legacy float_data,
// int32_data and int64_data fields are accepted on read.
//
// Example usage:
//
//	data, err := onnx.Encode(model)
//	if err != nil {
//	    return err
//	}
//	back, err := onnx.Decode(data)
package onnx
