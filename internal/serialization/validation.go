package serialization

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pashuvision/modelport/internal/tensor"
)

// Limits applied to headers before any tensor data is read.
const (
	MaxHeaderSize    = 100 * 1024 * 1024
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
	MaxLayerCount    = 10_000
)

// ValidationLevel controls how much of the header is checked on open.
type ValidationLevel int

const (
	// ValidationStrict also checks that tensor regions fit the data
	// section without overlapping (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names, dtypes, shapes and sizes.
	ValidationNormal
	// ValidationNone skips header validation.
	ValidationNone
)

// ValidateHeader runs the checks selected by level. Failures are
// *HeaderError.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if n := len(h.Tensors); n > MaxTensorCount {
		return headerErr(CheckLimit, fmt.Sprintf("%d tensors, max %d", n, MaxTensorCount))
	}
	if n := len(h.Layers); n > MaxLayerCount {
		return headerErr(CheckLimit, fmt.Sprintf("%d layers, max %d", n, MaxLayerCount))
	}
	for i, l := range h.Layers {
		if strings.TrimSpace(l.Type) == "" {
			return headerErr(CheckLayer, fmt.Sprintf("layer %d has no type", i))
		}
	}

	seen := make(map[string]struct{}, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := checkName(t.Name); err != nil {
			return err
		}
		if _, dup := seen[t.Name]; dup {
			return headerErr(CheckDuplicate, "listed more than once", t.Name)
		}
		seen[t.Name] = struct{}{}
		if err := checkLayout(t); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		return checkRegions(h.Tensors, dataSize)
	}
	return nil
}

// checkName rejects names that are empty, oversized or look like paths.
func checkName(name string) error {
	var reason string
	switch {
	case name == "":
		reason = "empty"
	case len(name) > MaxTensorNameLen:
		return headerErr(CheckName, fmt.Sprintf("%d bytes, max %d", len(name), MaxTensorNameLen), name[:32]+"...")
	case strings.Contains(name, ".."):
		reason = "contains '..'"
	case strings.ContainsAny(name, `/\`):
		reason = "contains a path separator"
	case strings.ContainsRune(name, 0):
		reason = "contains a null byte"
	default:
		return nil
	}
	return headerErr(CheckName, reason, name)
}

// checkLayout requires the declared size to equal elements times dtype size.
func checkLayout(t TensorMeta) error {
	dtype, ok := tensor.ParseDataType(t.DType)
	if !ok {
		return headerErr(CheckDType, "unsupported dtype "+t.DType, t.Name)
	}
	shape := tensor.Shape(t.Shape)
	if err := shape.Validate(); err != nil {
		return headerErr(CheckShape, err.Error(), t.Name)
	}
	want := int64(shape.NumElements() * dtype.Size())
	if t.Size != want {
		return headerErr(CheckSize, fmt.Sprintf("%s%v needs %d bytes, header says %d", dtype, shape, want, t.Size), t.Name)
	}
	return nil
}

// checkRegions requires every [offset, offset+size) to lie inside the data
// section and no two regions to overlap.
func checkRegions(tensors []TensorMeta, dataSize int64) error {
	byOffset := slices.Clone(tensors)
	slices.SortFunc(byOffset, func(a, b TensorMeta) int { return cmp.Compare(a.Offset, b.Offset) })

	var prev *TensorMeta
	for i := range byOffset {
		t := &byOffset[i]
		end := t.Offset + t.Size
		switch {
		case t.Offset < 0 || t.Size < 0:
			return headerErr(CheckBounds, fmt.Sprintf("negative region offset=%d size=%d", t.Offset, t.Size), t.Name)
		case end > dataSize:
			return headerErr(CheckBounds, fmt.Sprintf("ends at %d, data section is %d bytes", end, dataSize), t.Name)
		case prev != nil && prev.Offset+prev.Size > t.Offset:
			return headerErr(CheckOverlap, fmt.Sprintf("[%d,%d) overlaps [%d,%d)",
				prev.Offset, prev.Offset+prev.Size, t.Offset, end), prev.Name, t.Name)
		}
		prev = t
	}
	return nil
}
