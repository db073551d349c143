package serialization

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrTensorNotFound     = errors.New("tensor not found")
	ErrReaderClosed       = errors.New("reader is closed")
	ErrMalformedHeader    = errors.New("malformed header")
)

// Check names the header rule a HeaderError broke.
type Check string

// Header checks.
const (
	CheckLimit     Check = "limit"
	CheckName      Check = "name"
	CheckDuplicate Check = "duplicate"
	CheckDType     Check = "dtype"
	CheckShape     Check = "shape"
	CheckSize      Check = "size"
	CheckBounds    Check = "bounds"
	CheckOverlap   Check = "overlap"
	CheckLayer     Check = "layer"
)

// HeaderError describes a header that fails validation. It matches
// ErrMalformedHeader.
type HeaderError struct {
	Check   Check
	Tensors []string
	Detail  string
}

func (e *HeaderError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Check))
	for i, name := range e.Tensors {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%q", name)
	}
	b.WriteString(": ")
	b.WriteString(e.Detail)
	return b.String()
}

// Is reports whether target is ErrMalformedHeader.
func (e *HeaderError) Is(target error) bool {
	return target == ErrMalformedHeader
}

func headerErr(check Check, detail string, tensors ...string) *HeaderError {
	return &HeaderError{Check: check, Tensors: tensors, Detail: detail}
}
