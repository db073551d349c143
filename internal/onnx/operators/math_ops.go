package operators

// registerMathOps adds arithmetic, matrix and reduction operators.
func (r *Registry) registerMathOps() {
	for _, op := range []string{"Add", "Sub", "Mul", "Div", "Pow"} {
		r.fixed(op, 2, 1)
	}
	for _, op := range []string{"Neg", "Abs", "Sqrt", "Exp", "Log", "Reciprocal", "Floor", "Ceil"} {
		r.fixed(op, 1, 1)
	}

	r.fixed("MatMul", 2, 1)
	r.ranged("Gemm", 2, 3, 1, 1) // C is optional since opset 11

	r.ranged("Sum", 1, Unbounded, 1, 1)
	r.ranged("Max", 1, Unbounded, 1, 1)
	r.ranged("Min", 1, Unbounded, 1, 1)

	// Opset 11-13 reductions take axes as an attribute; ReduceSum moved it to an input in 13.
	for _, op := range []string{"ReduceMean", "ReduceMax", "ReduceMin"} {
		r.fixed(op, 1, 1)
	}
	r.ranged("ReduceSum", 1, 2, 1, 1)
}
