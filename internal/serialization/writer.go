package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

const writerVersion = "modelport"

// WriteFile writes a complete artifact to path, replacing any existing file.
func WriteFile(path string, dict StateDict, header Header, version int) error {
	//nolint:gosec // G304: output path is caller supplied.
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Encode(file, dict, header, version); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Encode writes an artifact to out. Tensors are laid out in name order so
// equal inputs produce equal files apart from created_at.
func Encode(out io.Writer, dict StateDict, header Header, version int) error {
	if version != FormatVersion && version != FormatVersionV2 {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	names := make([]string, 0, len(dict))
	for name := range dict {
		names = append(names, name)
	}
	sort.Strings(names)

	header.FormatVersion = version
	if header.BornVersion == "" {
		header.BornVersion = writerVersion
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	cw := newChecksumWriter()
	var offset int64
	header.Tensors = make([]TensorMeta, 0, len(names))
	for _, name := range names {
		raw := dict[name]
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  raw.DType().String(),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		_, _ = cw.Write(raw.Data())
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if len(header.Layers) > 0 {
		flags |= FlagHasLayers
	}

	var buf bytes.Buffer
	var fixedSize int64
	switch version {
	case FormatVersion:
		fixed := make([]byte, FixedHeaderSizeV1)
		copy(fixed[0:4], MagicBytes)
		binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
		binary.LittleEndian.PutUint32(fixed[8:12], flags)
		binary.LittleEndian.PutUint64(fixed[12:20], uint64(len(headerJSON)))
		buf.Write(fixed)
		fixedSize = FixedHeaderSizeV1
	case FormatVersionV2:
		fixed := make([]byte, FixedHeaderSizeV2)
		copy(fixed[0:4], MagicBytes)
		binary.LittleEndian.PutUint32(fixed[4:8], FormatVersionV2)
		binary.LittleEndian.PutUint32(fixed[8:12], flags)
		binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
		binary.LittleEndian.PutUint64(fixed[24:32], uint64(offset)) //nolint:gosec // G115: offset is a sum of non-negative sizes.
		sum := cw.Sum()
		copy(fixed[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize], sum[:])
		buf.Write(fixed)
		fixedSize = FixedHeaderSizeV2
	}
	buf.Write(headerJSON)

	end := fixedSize + int64(len(headerJSON))
	buf.Write(make([]byte, alignedOffset(end)-end))

	if _, err := out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, name := range names {
		if _, err := out.Write(dict[name].Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}
