package pipeline

import (
	"fmt"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/nn"
	"github.com/pashuvision/modelport/internal/persist"
	"github.com/pashuvision/modelport/internal/serialization"
	"github.com/pashuvision/modelport/internal/synth"
	"github.com/pashuvision/modelport/internal/tensor"
)

// writeMockSource stores the weights of a generated classifier as a .born
// artifact that Convert accepts. The MatMul weight [C, N] becomes the
// Linear weight [N, C] of a GlobalAvgPool, Flatten, Linear stack.
func writeMockSource(path string, m *graph.Model, channels, classes int) error {
	init, ok := m.Graph.Initializer(synth.WeightName)
	if !ok {
		return &persist.PersistenceError{Op: "encode", Path: path, Err: fmt.Errorf("model has no %q initializer", synth.WeightName)}
	}
	vals, err := init.Data.Float32s()
	if err != nil {
		return &persist.PersistenceError{Op: "encode", Path: path, Err: err}
	}
	transposed := make([]float32, len(vals))
	for c := 0; c < channels; c++ {
		for n := 0; n < classes; n++ {
			transposed[n*channels+c] = vals[c*classes+n]
		}
	}
	weight, err := tensor.FromFloat32(tensor.Shape{classes, channels}, tensor.Float32, transposed)
	if err != nil {
		return &persist.PersistenceError{Op: "encode", Path: path, Err: err}
	}

	model := nn.NewSequential(nn.NewGlobalAvgPool(), nn.NewFlatten(), nn.NewLinear(channels, classes, false))
	if err := model.LoadStateDict(serialization.StateDict{"2.weight": weight}); err != nil {
		return &persist.PersistenceError{Op: "encode", Path: path, Err: err}
	}
	header := serialization.Header{
		ModelType: "Sequential",
		Layers:    model.Specs(),
		Metadata:  map[string]string{"graph": m.Graph.Name},
	}
	if err := serialization.WriteFile(path, model.StateDict(), header, serialization.FormatVersionV2); err != nil {
		return &persist.PersistenceError{Op: "write", Path: path, Err: err}
	}
	return nil
}
