package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph construction, matched with errors.Is.
var (
	ErrDuplicateTensorName = errors.New("duplicate tensor name")
	ErrDanglingReference   = errors.New("dangling tensor reference")
	ErrInvalidTensorSpec   = errors.New("invalid tensor spec")
	ErrInvalidInitializer  = errors.New("invalid initializer")
)

// ConstructionKind classifies a ConstructionError.
type ConstructionKind string

// Construction failure kinds.
const (
	KindDuplicateTensorName ConstructionKind = "duplicate_tensor_name"
	KindDanglingReference   ConstructionKind = "dangling_reference"
	KindInvalidTensorSpec   ConstructionKind = "invalid_tensor_spec"
	KindInvalidInitializer  ConstructionKind = "invalid_initializer"
)

// ConstructionError reports why a graph could not be assembled.
type ConstructionError struct {
	Type    ConstructionKind
	Tensor  string // Tensor name involved
	Node    string // Node name involved, if any
	Details string
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	switch {
	case e.Node != "" && e.Tensor != "":
		return fmt.Sprintf("%s: node %q, tensor %q: %s", e.Type, e.Node, e.Tensor, e.Details)
	case e.Tensor != "":
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Details)
	}
}

// Kind returns the error family name.
func (e *ConstructionError) Kind() string {
	return "GraphConstructionError"
}

// Is matches the sentinel for the error's kind.
func (e *ConstructionError) Is(target error) bool {
	switch e.Type {
	case KindDuplicateTensorName:
		return target == ErrDuplicateTensorName
	case KindDanglingReference:
		return target == ErrDanglingReference
	case KindInvalidTensorSpec:
		return target == ErrInvalidTensorSpec
	case KindInvalidInitializer:
		return target == ErrInvalidInitializer
	}
	return false
}
