package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pashuvision/modelport/internal/tensor"
)

// BornReader reads .born artifacts.
type BornReader struct {
	file       *os.File
	header     Header
	flags      uint32
	version    uint32
	dataOffset int64 // Offset where tensor data starts
	dataSize   int64 // Size of the data section
	checksum   [ChecksumSize]byte
	opts       ReaderOptions
	closed     bool
}

// ReaderOptions configures BornReader.
type ReaderOptions struct {
	SkipChecksumValidation bool
	ValidationLevel        ValidationLevel
}

// NewBornReader opens a .born file with strict validation and checksum
// verification.
func NewBornReader(path string) (*BornReader, error) {
	return NewBornReaderWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// NewBornReaderWithOptions opens a .born file with custom options.
func NewBornReaderWithOptions(path string, opts ReaderOptions) (*BornReader, error) {
	//nolint:gosec // G304: artifact path is user supplied by design of the convert command.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &BornReader{file: file, opts: opts}
	if err := r.open(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

func (r *BornReader) open() error {
	if err := r.parseHeader(); err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}

	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	available := info.Size() - r.dataOffset
	if r.version == FormatVersion {
		r.dataSize = available
	} else if r.dataSize > available {
		return fmt.Errorf("data section truncated: header declares %d bytes, file has %d", r.dataSize, available)
	}

	if err := ValidateHeader(&r.header, r.dataSize, r.opts.ValidationLevel); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if r.version == FormatVersionV2 && !r.opts.SkipChecksumValidation {
		if err := r.verifyChecksum(); err != nil {
			return err
		}
	}
	return nil
}

// parseHeader reads magic, version and the version-specific fixed header.
func (r *BornReader) parseHeader() error {
	prefix := make([]byte, 8)
	if _, err := io.ReadFull(r.file, prefix); err != nil {
		return fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(prefix[:4]) != MagicBytes {
		return ErrInvalidMagic
	}
	r.version = binary.LittleEndian.Uint32(prefix[4:8])

	switch r.version {
	case FormatVersion:
		return r.parseHeaderV1()
	case FormatVersionV2:
		return r.parseHeaderV2()
	default:
		return fmt.Errorf("%w: got %d, expected %d or %d", ErrUnsupportedVersion, r.version, FormatVersion, FormatVersionV2)
	}
}

// parseHeaderV1 reads flags and header size after the 8-byte prefix.
func (r *BornReader) parseHeaderV1() error {
	rest := make([]byte, FixedHeaderSizeV1-8)
	if _, err := io.ReadFull(r.file, rest); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}
	r.flags = binary.LittleEndian.Uint32(rest[0:4])
	headerSize := binary.LittleEndian.Uint64(rest[4:12])

	if err := r.readJSONHeader(headerSize); err != nil {
		return err
	}
	r.dataOffset = alignedOffset(FixedHeaderSizeV1 + int64(headerSize)) //nolint:gosec // G115: bounded by MaxHeaderSize.
	return nil
}

// parseHeaderV2 reads the rest of the 64-byte fixed header.
//
//	0x08 flags | 0x0C reserved | 0x10 header size | 0x18 data size | 0x20 SHA-256
func (r *BornReader) parseHeaderV2() error {
	rest := make([]byte, FixedHeaderSizeV2-8)
	if _, err := io.ReadFull(r.file, rest); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}
	fixed := append(make([]byte, 8, FixedHeaderSizeV2), rest...)

	r.flags = binary.LittleEndian.Uint32(fixed[8:12])
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	copy(r.checksum[:], fixed[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize])

	if dataSize > 1<<62 {
		return fmt.Errorf("invalid data size %d", dataSize)
	}
	r.dataSize = int64(dataSize)

	if err := r.readJSONHeader(headerSize); err != nil {
		return err
	}
	r.dataOffset = alignedOffset(FixedHeaderSizeV2 + int64(headerSize)) //nolint:gosec // G115: bounded by MaxHeaderSize.
	return nil
}

func (r *BornReader) readJSONHeader(size uint64) error {
	if size > MaxHeaderSize {
		return ErrHeaderTooLarge
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r.file, buf); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(buf, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}
	return nil
}

// verifyChecksum streams the data section through SHA-256.
func (r *BornReader) verifyChecksum() error {
	if _, err := r.file.Seek(r.dataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to tensor data: %w", err)
	}
	cw := newChecksumWriter()
	if _, err := io.CopyN(cw, r.file, r.dataSize); err != nil {
		return fmt.Errorf("failed to read tensor data for checksum: %w", err)
	}
	return validateChecksum(cw.Sum(), r.checksum)
}

// Version returns the format version of the file.
func (r *BornReader) Version() int {
	return int(r.version)
}

// Header returns the file header.
func (r *BornReader) Header() Header {
	return r.header
}

// Layers returns the architecture description.
func (r *BornReader) Layers() []LayerSpec {
	return r.header.Layers
}

// TensorNames returns the tensor names in header order.
func (r *BornReader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns the metadata of a tensor.
func (r *BornReader) TensorInfo(name string) (*TensorMeta, error) {
	for i := range r.header.Tensors {
		if r.header.Tensors[i].Name == name {
			meta := r.header.Tensors[i]
			return &meta, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
}

// LoadTensor reads a single tensor.
func (r *BornReader) LoadTensor(name string) (*tensor.Raw, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	dtype, ok := tensor.ParseDataType(meta.DType)
	if !ok {
		return nil, fmt.Errorf("tensor %s: unsupported dtype %s", name, meta.DType)
	}

	data := make([]byte, meta.Size)
	if _, err := r.file.ReadAt(data, r.dataOffset+meta.Offset); err != nil {
		return nil, fmt.Errorf("failed to read tensor %s: %w", name, err)
	}
	raw, err := tensor.FromBytes(tensor.Shape(meta.Shape), dtype, data)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	return raw, nil
}

// ReadStateDict reads every tensor in the file.
func (r *BornReader) ReadStateDict() (StateDict, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}
	dict := make(StateDict, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name)
		if err != nil {
			return nil, err
		}
		dict[meta.Name] = raw
	}
	return dict, nil
}

// Close closes the underlying file.
func (r *BornReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// ReadFile opens path, reads header and state dict, and closes the file.
func ReadFile(path string) (Header, StateDict, error) {
	r, err := NewBornReader(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer r.Close()

	dict, err := r.ReadStateDict()
	if err != nil {
		return Header{}, nil, err
	}
	return r.Header(), dict, nil
}
