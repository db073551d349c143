package validate

import (
	"github.com/pashuvision/modelport/internal/graph"
)

// declaration is one place a tensor's spec is stated.
type declaration struct {
	where string
	spec  graph.TensorSpec
}

// checkShapes compares every declaration of a tensor with the first one and
// checks the contraction axes of MatMul and Gemm. A symbolic dimension is
// compatible with anything.
func checkShapes(g *graph.Graph) *ValidationError {
	decls := make(map[string][]declaration)
	var order []string
	add := func(where string, spec graph.TensorSpec) *ValidationError {
		if err := spec.Validate(); err != nil {
			return fail(ReasonShapeMismatch, spec.Name, "", "%s: %v", where, err)
		}
		if _, ok := decls[spec.Name]; !ok {
			order = append(order, spec.Name)
		}
		decls[spec.Name] = append(decls[spec.Name], declaration{where: where, spec: spec})
		return nil
	}

	for _, in := range g.Inputs {
		if err := add("graph input", in); err != nil {
			return err
		}
	}
	for _, init := range g.Initializers {
		if err := init.Validate(); err != nil {
			return fail(ReasonShapeMismatch, init.Name(), "", "%v", err)
		}
		if err := add("initializer", init.Spec); err != nil {
			return err
		}
	}
	for _, out := range g.Outputs {
		if err := add("graph output", out); err != nil {
			return err
		}
	}
	for _, vi := range g.ValueInfo {
		if err := add("value_info", vi); err != nil {
			return err
		}
	}

	for _, name := range order {
		ds := decls[name]
		for _, d := range ds[1:] {
			if err := compare(ds[0], d); err != nil {
				return err
			}
		}
	}

	spec := func(name string) (graph.TensorSpec, bool) {
		ds, ok := decls[name]
		if !ok {
			return graph.TensorSpec{}, false
		}
		return ds[0].spec, true
	}
	for i, n := range g.Nodes {
		var err *ValidationError
		switch n.OpType {
		case "MatMul":
			err = checkMatMul(n, nodeLabel(n, i), spec)
		case "Gemm":
			err = checkGemm(n, nodeLabel(n, i), spec)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func compare(a, b declaration) *ValidationError {
	name := a.spec.Name
	if a.spec.ElemType != b.spec.ElemType {
		return fail(ReasonShapeMismatch, name, "", "%s declares %s, %s declares %s",
			a.where, a.spec.ElemType, b.where, b.spec.ElemType)
	}
	if len(a.spec.Shape) != len(b.spec.Shape) {
		return fail(ReasonShapeMismatch, name, "", "%s declares %s, %s declares %s",
			a.where, a.spec.ShapeString(), b.where, b.spec.ShapeString())
	}
	for axis := range a.spec.Shape {
		if !compatible(a.spec.Shape[axis], b.spec.Shape[axis]) {
			return fail(ReasonShapeMismatch, name, "", "axis %d: %s declares %s, %s declares %s",
				axis, a.where, a.spec.ShapeString(), b.where, b.spec.ShapeString())
		}
	}
	return nil
}

func compatible(a, b graph.Dim) bool {
	return a.IsSymbolic() || b.IsSymbolic() || a.Value == b.Value
}

type lookup func(name string) (graph.TensorSpec, bool)

// checkMatMul compares the last axis of A with the second to last axis of B
// (the only axis when B is a vector).
func checkMatMul(n graph.Node, label string, spec lookup) *ValidationError {
	if len(n.Inputs) < 2 {
		return nil
	}
	a, okA := spec(n.Inputs[0])
	b, okB := spec(n.Inputs[1])
	if !okA || !okB {
		return nil
	}
	ka := a.Shape[len(a.Shape)-1]
	kb := b.Shape[0]
	if len(b.Shape) >= 2 {
		kb = b.Shape[len(b.Shape)-2]
	}
	if !compatible(ka, kb) {
		return fail(ReasonShapeMismatch, "", label, "cannot multiply %s %s by %s %s",
			a.Name, a.ShapeString(), b.Name, b.ShapeString())
	}
	return nil
}

// checkGemm checks the contraction axis of A' * B' and the declared output
// shape [M, N], honoring transA and transB.
func checkGemm(n graph.Node, label string, spec lookup) *ValidationError {
	if len(n.Inputs) < 2 {
		return nil
	}
	a, okA := spec(n.Inputs[0])
	b, okB := spec(n.Inputs[1])
	if !okA || !okB {
		return nil
	}
	for _, s := range []graph.TensorSpec{a, b} {
		if len(s.Shape) != 2 {
			return fail(ReasonShapeMismatch, s.Name, label, "Gemm operand has shape %s, want rank 2", s.ShapeString())
		}
	}

	m, ka := a.Shape[0], a.Shape[1]
	if attrInt(n, "transA") != 0 {
		m, ka = ka, m
	}
	kb, cols := b.Shape[0], b.Shape[1]
	if attrInt(n, "transB") != 0 {
		kb, cols = cols, kb
	}
	if !compatible(ka, kb) {
		return fail(ReasonShapeMismatch, "", label, "cannot multiply %s %s by %s %s",
			a.Name, a.ShapeString(), b.Name, b.ShapeString())
	}

	if len(n.Outputs) == 0 {
		return nil
	}
	out, ok := spec(n.Outputs[0])
	if !ok {
		return nil
	}
	if len(out.Shape) != 2 || !compatible(out.Shape[0], m) || !compatible(out.Shape[1], cols) {
		return fail(ReasonShapeMismatch, out.Name, label, "Gemm produces [%s, %s], declared %s",
			m, cols, out.ShapeString())
	}
	return nil
}

func attrInt(n graph.Node, name string) int64 {
	a, ok := n.Attr(name)
	if !ok {
		return 0
	}
	return a.I
}
