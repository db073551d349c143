package serialization

import (
	"crypto/sha256"
	"hash"
)

// checksumWriter hashes tensor data as it is laid out in the data section.
type checksumWriter struct {
	h hash.Hash
}

func newChecksumWriter() *checksumWriter {
	return &checksumWriter{h: sha256.New()}
}

func (c *checksumWriter) Write(p []byte) (int, error) {
	return c.h.Write(p)
}

func (c *checksumWriter) Sum() [ChecksumSize]byte {
	var sum [ChecksumSize]byte
	copy(sum[:], c.h.Sum(nil))
	return sum
}

// validateChecksum returns ErrChecksumMismatch if the sums differ.
func validateChecksum(computed, stored [ChecksumSize]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}
