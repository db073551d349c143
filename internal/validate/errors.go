package validate

import (
	"errors"
	"fmt"
	"strings"
)

// Reason identifies which check a model failed.
type Reason string

// Validation failure reasons, in the order they are checked.
const (
	ReasonUnsupportedOpset     Reason = "unsupported-opset"
	ReasonNameCollision        Reason = "name-collision"
	ReasonCycleOrMultiProducer Reason = "cycle-or-multi-producer"
	ReasonUnknownOperator      Reason = "unknown-operator/arity-mismatch"
	ReasonShapeMismatch        Reason = "shape-mismatch"
)

// Sentinel errors, one per Reason, matched with errors.Is.
var (
	ErrUnsupportedOpset     = errors.New("unsupported opset")
	ErrNameCollision        = errors.New("name collision")
	ErrCycleOrMultiProducer = errors.New("cycle or multiple producers")
	ErrUnknownOperator      = errors.New("unknown operator or arity mismatch")
	ErrShapeMismatch        = errors.New("shape mismatch")
)

// ValidationError is the first check a model failed.
type ValidationError struct {
	Reason  Reason
	Tensor  string // Tensor involved, if any
	Node    string // Node involved, if any
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed (%s)", e.Reason)
	if e.Node != "" {
		fmt.Fprintf(&b, ": node %q", e.Node)
	}
	if e.Tensor != "" {
		fmt.Fprintf(&b, ": tensor %q", e.Tensor)
	}
	if e.Details != "" {
		b.WriteString(": ")
		b.WriteString(e.Details)
	}
	return b.String()
}

// Kind returns the error family name.
func (e *ValidationError) Kind() string {
	return "ValidationError"
}

// Is matches the sentinel for the error's reason.
func (e *ValidationError) Is(target error) bool {
	switch e.Reason {
	case ReasonUnsupportedOpset:
		return target == ErrUnsupportedOpset
	case ReasonNameCollision:
		return target == ErrNameCollision
	case ReasonCycleOrMultiProducer:
		return target == ErrCycleOrMultiProducer
	case ReasonUnknownOperator:
		return target == ErrUnknownOperator
	case ReasonShapeMismatch:
		return target == ErrShapeMismatch
	}
	return false
}

func fail(reason Reason, tensorName, node, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Tensor: tensorName, Node: node, Details: fmt.Sprintf(format, args...)}
}
