// Package serialization reads and writes .born model artifacts, the source
// format consumed by the exporter.
//
//	v1:
//	  [4 bytes: Magic "BORN"]
//	  [4 bytes: Version = 1 (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON]
//	  [Tensor data: raw little-endian bytes, 64-byte aligned]
//
//	v2:
//	  [64 bytes: Magic, Version = 2, Flags, reserved, Header Size, Data Size, SHA-256 of data]
//	  [Header: JSON]
//	  [Tensor data: 64-byte aligned]
//
// The JSON header lists every tensor (name, dtype, shape, offset, size) and,
// for sequential models, a "layers" array describing the architecture. Tensor
// names follow state-dict convention: "<layer index>.<param>".
//
// Example usage:
//
//	header, dict, err := serialization.ReadFile("model.born")
//	if err != nil {
//	    return err
//	}
//	for _, layer := range header.Layers {
//	    fmt.Println(layer.Type)
//	}
package serialization
