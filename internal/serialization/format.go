package serialization

import (
	"fmt"
	"time"

	"github.com/pashuvision/modelport/internal/tensor"
)

// Format constants.
const (
	MagicBytes        = "BORN"
	FormatVersion     = 1    // v1: no checksum
	FormatVersionV2   = 2    // v2: SHA-256 checksum of the data section
	HeaderAlignment   = 64   // Tensor data starts on a 64-byte boundary
	FixedHeaderSizeV1 = 20   // magic + version + flags + header size
	FixedHeaderSizeV2 = 64   // v2 fixed header size (0x40 bytes)
	ChecksumSize      = 32   // SHA-256 checksum size
	ChecksumOffsetV2  = 0x20 // Checksum offset in v2 fixed header
)

// Flags for the .born format.
const (
	FlagHasMetadata uint32 = 1 << 2 // custom metadata included
	FlagHasLayers   uint32 = 1 << 3 // architecture description included
)

// Header is the JSON header of a .born artifact.
type Header struct {
	FormatVersion int               `json:"format_version"`
	BornVersion   string            `json:"born_version"` // Version of the tool that wrote the file
	ModelType     string            `json:"model_type"`   // e.g. "Sequential"
	CreatedAt     time.Time         `json:"created_at"`
	Layers        []LayerSpec       `json:"layers,omitempty"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"`
}

// LayerSpec describes one layer of a sequential architecture. Params hold the
// layer's hyperparameters (channel counts, kernel size, epsilon, ...); its
// weights live in the tensor section under "<index>.<param>".
type LayerSpec struct {
	Type   string             `json:"type"`
	Name   string             `json:"name,omitempty"`
	Params map[string]float64 `json:"params,omitempty"`
}

// Param returns a hyperparameter, or def when it is absent.
func (l LayerSpec) Param(key string, def float64) float64 {
	if v, ok := l.Params[key]; ok {
		return v
	}
	return def
}

// IntParam returns a hyperparameter that must be a whole number.
func (l LayerSpec) IntParam(key string, def int) (int, error) {
	v, ok := l.Params[key]
	if !ok {
		return def, nil
	}
	if v != float64(int(v)) {
		return 0, fmt.Errorf("layer %s: param %q must be an integer, got %v", l.Type, key, v)
	}
	return int(v), nil
}

// TensorMeta describes a tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "0.weight"
	DType  string `json:"dtype"`  // e.g. "float32"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Byte offset from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// StateDict maps parameter names to their values.
type StateDict map[string]*tensor.Raw

func alignedOffset(pos int64) int64 {
	return pos + (HeaderAlignment-(pos%HeaderAlignment))%HeaderAlignment
}
