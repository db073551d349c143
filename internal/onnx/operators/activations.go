package operators

// registerActivations adds activation functions.
func (r *Registry) registerActivations() {
	for _, op := range []string{
		"Relu", "Sigmoid", "Tanh", "Softmax", "LogSoftmax",
		"LeakyRelu", "Elu", "Selu", "Softplus", "HardSigmoid",
	} {
		r.fixed(op, 1, 1)
	}
	r.fixed("PRelu", 2, 1)
	r.ranged("Clip", 1, 3, 1, 1) // min/max became inputs in opset 11
}
