// Package operators holds the fixed table of ONNX operator schemas used to
// check node arity during validation.
//
// The table is a lookup, not an inference engine: each entry records how many
// inputs and outputs an operator accepts. Operators are grouped the way the
// ONNX operator catalogue groups them:
//   - Math: elementwise arithmetic, MatMul, Gemm, reductions
//   - Activations: Relu, Sigmoid, Softmax and friends
//   - Shape: Reshape, Flatten, Transpose, Concat, ...
//   - NN: Conv, pooling, normalization, Dropout
//   - Utility: Identity, Cast, Constant, Shape
package operators
