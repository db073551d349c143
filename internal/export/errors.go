package export

import (
	"errors"
	"fmt"
)

// ErrNoLayers is returned when an artifact carries weights but no
// architecture description.
var ErrNoLayers = errors.New("artifact declares no layers")

// ErrInputShape is returned for a placeholder shape with a non-positive axis.
var ErrInputShape = errors.New("invalid input shape")

// LoadError reports an artifact that is missing or cannot be turned into a
// model: unreadable file, corrupt header or checksum, unknown layer type, or
// weights that do not fit the declared layers.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Kind returns the error family name.
func (e *LoadError) Kind() string { return "LoadError" }

// TraceError reports a model whose computation cannot be captured as a
// static graph for the requested input shape.
type TraceError struct {
	Path  string
	Shape [4]int
	Err   error
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("trace %s with input %v: %v", e.Path, e.Shape, e.Err)
}

func (e *TraceError) Unwrap() error { return e.Err }

// Kind returns the error family name.
func (e *TraceError) Kind() string { return "TraceError" }

// ExportError wraps a graph construction failure during export.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Kind returns the error family name.
func (e *ExportError) Kind() string { return "ExportError" }
