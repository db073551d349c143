package operators

// registerShapeOps adds shape manipulation operators.
func (r *Registry) registerShapeOps() {
	r.fixed("Reshape", 2, 1)
	r.fixed("Transpose", 1, 1)
	r.fixed("Flatten", 1, 1)
	r.ranged("Squeeze", 1, 2, 1, 1)
	r.ranged("Unsqueeze", 1, 2, 1, 1)
	r.ranged("Concat", 1, Unbounded, 1, 1)
	r.ranged("Split", 1, 2, 1, Unbounded)
	r.ranged("Slice", 3, 5, 1, 1)
	r.fixed("Gather", 2, 1)
	r.fixed("Expand", 2, 1)
}
