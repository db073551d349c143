// Package validate checks that a model is structurally sound before it is
// persisted. Checks run in a fixed order and stop at the first failure:
//
//  1. opset version is supported
//  2. graph input, output, initializer and node names do not collide
//  3. every tensor has one producer, declared before its consumers, and the
//     node graph is acyclic
//  4. every operator is known and called with a valid input/output count
//  5. declared element types and fixed dimensions agree (symbolic dimensions
//     match anything)
//
// Models built by graph.Builder already satisfy 2 and 3; models decoded
// from disk or assembled by hand may not.
package validate

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/onnx/operators"
)

// SupportedOpsets lists the default accepted opset versions.
var SupportedOpsets = []int64{9, 10, 11, 12, 13}

// Validator runs the structural checks. The zero value is not usable; call
// New.
type Validator struct {
	logger *slog.Logger
	ops    *operators.Registry
	opsets map[int64]bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithOperators replaces the operator schema table.
func WithOperators(r *operators.Registry) Option {
	return func(v *Validator) { v.ops = r }
}

// WithOpsets replaces the accepted opset versions.
func WithOpsets(versions ...int64) Option {
	return func(v *Validator) {
		v.opsets = make(map[int64]bool, len(versions))
		for _, ver := range versions {
			v.opsets[ver] = true
		}
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ops:    operators.NewRegistry(),
	}
	WithOpsets(SupportedOpsets...)(v)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns nil or the first *ValidationError found.
func (v *Validator) Validate(m *graph.Model) error {
	err := v.validate(m)
	if err != nil {
		v.logger.Warn("validate.failed",
			"reason", string(err.Reason),
			"tensor", err.Tensor,
			"node", err.Node,
			"details", err.Details,
		)
		return err
	}
	v.logger.Info("validate.ok",
		"graph", m.Graph.Name,
		"opset", m.OpsetVersion,
		"nodes", len(m.Graph.Nodes),
	)
	return nil
}

func (v *Validator) validate(m *graph.Model) *ValidationError {
	if m == nil || m.Graph == nil {
		return fail(ReasonCycleOrMultiProducer, "", "", "model has no graph")
	}
	if !v.opsets[m.OpsetVersion] {
		return fail(ReasonUnsupportedOpset, "", "", "opset %d is not one of %v", m.OpsetVersion, v.supported())
	}

	checks := []func(*graph.Graph) *ValidationError{
		checkNames,
		checkTopology,
		v.checkOperators,
		checkShapes,
	}
	for _, check := range checks {
		if err := check(m.Graph); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) supported() []int64 {
	out := make([]int64, 0, len(v.opsets))
	for ver := range v.opsets {
		out = append(out, ver)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// checkNames rejects duplicate names within and across the declaration
// lists. An output that repeats an input name passes the input through.
func checkNames(g *graph.Graph) *ValidationError {
	inputs := make(map[string]bool, len(g.Inputs))
	for _, in := range g.Inputs {
		if inputs[in.Name] {
			return fail(ReasonNameCollision, in.Name, "", "graph input declared twice")
		}
		inputs[in.Name] = true
	}

	inits := make(map[string]bool, len(g.Initializers))
	for _, init := range g.Initializers {
		name := init.Name()
		if inits[name] {
			return fail(ReasonNameCollision, name, "", "initializer declared twice")
		}
		if inputs[name] {
			return fail(ReasonNameCollision, name, "", "initializer shares its name with a graph input")
		}
		inits[name] = true
	}

	outputs := make(map[string]bool, len(g.Outputs))
	for _, out := range g.Outputs {
		if outputs[out.Name] {
			return fail(ReasonNameCollision, out.Name, "", "graph output declared twice")
		}
		if inits[out.Name] {
			return fail(ReasonNameCollision, out.Name, "", "graph output shares its name with an initializer")
		}
		outputs[out.Name] = true
	}

	nodes := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Name == "" {
			continue
		}
		if nodes[n.Name] {
			return fail(ReasonNameCollision, "", n.Name, "node name used twice")
		}
		nodes[n.Name] = true
	}
	return nil
}

func (v *Validator) checkOperators(g *graph.Graph) *ValidationError {
	for i, n := range g.Nodes {
		schema, ok := v.ops.Get(n.OpType)
		if !ok {
			return fail(ReasonUnknownOperator, "", nodeLabel(n, i), "unknown operator %q", n.OpType)
		}
		if err := schema.CheckArity(len(n.Inputs), len(n.Outputs)); err != nil {
			return fail(ReasonUnknownOperator, "", nodeLabel(n, i), "%v", err)
		}
	}
	return nil
}

// nodeLabel names a node in errors, falling back to its position.
func nodeLabel(n graph.Node, i int) string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("#%d %s", i, n.OpType)
}
