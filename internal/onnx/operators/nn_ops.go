package operators

// registerNNOps adds convolution, pooling, normalization and dropout.
func (r *Registry) registerNNOps() {
	r.ranged("Conv", 2, 3, 1, 1)
	r.ranged("ConvTranspose", 2, 3, 1, 1)
	r.ranged("MaxPool", 1, 1, 1, 2) // optional Indices output
	r.fixed("AveragePool", 1, 1)
	r.fixed("GlobalAveragePool", 1, 1)
	r.fixed("GlobalMaxPool", 1, 1)
	r.ranged("BatchNormalization", 5, 5, 1, 5) // training outputs are optional
	r.ranged("LayerNormalization", 2, 3, 1, 3)
	r.ranged("Dropout", 1, 3, 1, 2) // ratio and training_mode inputs since opset 12
}
