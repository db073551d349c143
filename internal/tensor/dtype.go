// Package tensor provides element types, shapes and flat value buffers
// shared by the graph model, the source artifact reader and the ONNX codec.
package tensor

import "fmt"

// DataType is a tensor element type.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Bool
	Float16
)

type dtypeInfo struct {
	name  string
	size  int   // Bytes per element
	onnx  int32 // TensorProto.DataType
	float bool
}

var dtypes = [...]dtypeInfo{
	Float32: {"float32", 4, 1, true},
	Float64: {"float64", 8, 11, true},
	Int32:   {"int32", 4, 6, false},
	Int64:   {"int64", 8, 7, false},
	Uint8:   {"uint8", 1, 2, false},
	Bool:    {"bool", 1, 9, false},
	Float16: {"float16", 2, 10, true},
}

func (dt DataType) info() (dtypeInfo, bool) {
	if dt < 0 || int(dt) >= len(dtypes) {
		return dtypeInfo{}, false
	}
	return dtypes[dt], true
}

// Size returns the byte size of one element. It panics on an unknown type.
func (dt DataType) Size() int {
	info, ok := dt.info()
	if !ok {
		panic(fmt.Sprintf("unknown data type %d", int(dt)))
	}
	return info.size
}

func (dt DataType) String() string {
	if info, ok := dt.info(); ok {
		return info.name
	}
	return "unknown"
}

// IsFloat reports whether the type holds floating point values.
func (dt DataType) IsFloat() bool {
	info, _ := dt.info()
	return info.float
}

// ONNXCode returns the TensorProto.DataType code, or 0 (UNDEFINED).
func (dt DataType) ONNXCode() int32 {
	info, _ := dt.info()
	return info.onnx
}

// FromONNXCode maps a TensorProto.DataType code to a DataType.
func FromONNXCode(code int32) (DataType, error) {
	for dt, info := range dtypes {
		if info.onnx == code {
			return DataType(dt), nil
		}
	}
	return 0, fmt.Errorf("unsupported ONNX data type %d", code)
}

// ParseDataType is the inverse of String.
func ParseDataType(s string) (DataType, bool) {
	for dt, info := range dtypes {
		if info.name == s {
			return DataType(dt), true
		}
	}
	return 0, false
}
