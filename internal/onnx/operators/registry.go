package operators

import (
	"fmt"
	"sort"
)

// Unbounded marks a variadic input or output count.
const Unbounded = -1

// Schema describes the accepted input/output arity of an operator.
type Schema struct {
	OpType     string
	MinInputs  int
	MaxInputs  int // Unbounded for variadic operators
	MinOutputs int
	MaxOutputs int
}

// CheckArity validates input/output counts against the schema.
func (s Schema) CheckArity(inputs, outputs int) error {
	if inputs < s.MinInputs || (s.MaxInputs != Unbounded && inputs > s.MaxInputs) {
		return fmt.Errorf("%s takes %s inputs, got %d", s.OpType, arityRange(s.MinInputs, s.MaxInputs), inputs)
	}
	if outputs < s.MinOutputs || (s.MaxOutputs != Unbounded && outputs > s.MaxOutputs) {
		return fmt.Errorf("%s produces %s outputs, got %d", s.OpType, arityRange(s.MinOutputs, s.MaxOutputs), outputs)
	}
	return nil
}

func arityRange(lo, hi int) string {
	switch {
	case hi == Unbounded:
		return fmt.Sprintf("at least %d", lo)
	case lo == hi:
		return fmt.Sprint(lo)
	default:
		return fmt.Sprintf("%d to %d", lo, hi)
	}
}

// Registry maps ONNX operator types to their schemas.
type Registry struct {
	schemas map[string]Schema
}

// NewRegistry creates a registry with all known operators.
func NewRegistry() *Registry {
	r := &Registry{
		schemas: make(map[string]Schema),
	}

	r.registerMathOps()
	r.registerActivations()
	r.registerShapeOps()
	r.registerNNOps()
	r.registerUtilityOps()

	return r
}

// Register adds or replaces an operator schema.
func (r *Registry) Register(s Schema) {
	r.schemas[s.OpType] = s
}

// Get returns the schema for an operator type.
func (r *Registry) Get(opType string) (Schema, bool) {
	s, ok := r.schemas[opType]
	return s, ok
}

// SupportedOps returns all known operator types, sorted.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.schemas))
	for op := range r.schemas {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// fixed registers an operator with exact arity.
func (r *Registry) fixed(opType string, inputs, outputs int) {
	r.Register(Schema{OpType: opType, MinInputs: inputs, MaxInputs: inputs, MinOutputs: outputs, MaxOutputs: outputs})
}

// ranged registers an operator with ranged arity.
func (r *Registry) ranged(opType string, minIn, maxIn, minOut, maxOut int) {
	r.Register(Schema{OpType: opType, MinInputs: minIn, MaxInputs: maxIn, MinOutputs: minOut, MaxOutputs: maxOut})
}
