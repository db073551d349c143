// Package persist writes exported models and sidecar files to disk without
// ever leaving a partial file at the destination path.
package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/onnx"
)

// ErrEmptyPath is returned when no destination is given.
var ErrEmptyPath = errors.New("empty path")

// PersistenceError reports a failed read or write of a persisted file.
type PersistenceError struct {
	Op   string // e.g. "encode", "write", "read", "decode" or "mkdir"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Kind returns the error family name.
func (e *PersistenceError) Kind() string {
	return "PersistenceError"
}

// Save encodes m as ONNX and writes it atomically to path. Parent
// directories are created.
func Save(path string, m *graph.Model) error {
	data, err := onnx.Encode(m)
	if err != nil {
		return &PersistenceError{Op: "encode", Path: path, Err: err}
	}
	return WriteFileAtomic(path, data, 0o644)
}

// Load reads and decodes an ONNX file. The model is not validated.
func Load(path string) (*graph.Model, error) {
	//nolint:gosec // G304: path is caller supplied.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Path: path, Err: err}
	}
	m, err := onnx.Decode(data)
	if err != nil {
		return nil, &PersistenceError{Op: "decode", Path: path, Err: err}
	}
	return m, nil
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it and
// renames it into place. On failure the temporary file is removed and path is
// left untouched.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	if path == "" {
		return &PersistenceError{Op: "write", Path: path, Err: ErrEmptyPath}
	}
	fail := func(e error) error {
		return &PersistenceError{Op: "write", Path: path, Err: e}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fail(err)
	}
	if err = tmp.Sync(); err != nil {
		return fail(err)
	}
	if err = tmp.Close(); err != nil {
		return fail(err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fail(err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fail(err)
	}
	return nil
}
