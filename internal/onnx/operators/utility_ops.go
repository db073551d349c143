package operators

// registerUtilityOps adds pass-through, casting and constant operators.
func (r *Registry) registerUtilityOps() {
	r.fixed("Identity", 1, 1)
	r.fixed("Cast", 1, 1)
	r.fixed("Shape", 1, 1)
	r.fixed("Constant", 0, 1)
	r.fixed("Where", 3, 1)
	r.fixed("Equal", 2, 1)
	r.fixed("Greater", 2, 1)
	r.fixed("Less", 2, 1)
	r.fixed("Not", 1, 1)
}
