// Package synth generates a minimal image classifier graph for exercising
// the conversion pipeline without a trained model.
//
// The graph always has the same three nodes:
//
//	input [B,C,H,W] -> GlobalAveragePool -> pooled [B,C,1,1]
//	                -> Flatten(axis=1)   -> flattened [B,C]
//	                -> MatMul(weight)    -> output [B,N]
//
// The input shape is fixed; nothing is symbolic.
package synth

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/onnx"
	"github.com/pashuvision/modelport/internal/tensor"
	"github.com/pashuvision/modelport/internal/version"
)

// Names used in every generated graph.
const (
	GraphName    = "mock_breed_classifier"
	OpsetVersion = 11
	InputName    = "input"
	OutputName   = "output"
	WeightName   = "weight"
)

// Generator builds synthetic models.
type Generator struct {
	logger *slog.Logger
	rng    *rand.Rand
}

// Option configures a Generator.
type Option func(*generatorConfig)

type generatorConfig struct {
	logger *slog.Logger
	seed   int64
	seeded bool
}

// WithSeed makes weight sampling reproducible.
func WithSeed(seed int64) Option {
	return func(c *generatorConfig) {
		c.seed = seed
		c.seeded = true
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *generatorConfig) { c.logger = l }
}

// New creates a Generator. Without WithSeed the weights differ per run.
func New(opts ...Option) *Generator {
	var cfg generatorConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.seeded {
		cfg.seed = time.Now().UnixNano()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	//nolint:gosec // Mock weights are not security-sensitive.
	return &Generator{logger: cfg.logger, rng: rand.New(rand.NewSource(cfg.seed))}
}

// Generate builds the classifier for inputShape (batch, channels, height,
// width) and numClasses outputs. The weight [channels, numClasses] is drawn
// from a standard normal distribution.
//
// Non-positive sizes fail with a *graph.ConstructionError.
func (g *Generator) Generate(inputShape [4]int, numClasses int) (*graph.Model, error) {
	b, c, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	if numClasses <= 0 {
		return nil, &graph.ConstructionError{
			Type:    graph.KindInvalidTensorSpec,
			Tensor:  OutputName,
			Details: fmt.Sprintf("class count must be positive, got %d", numClasses),
		}
	}

	in := graph.TensorSpec{Name: InputName, ElemType: tensor.Float32, Shape: graph.Dims(b, c, h, w)}
	if err := in.Validate(); err != nil {
		return nil, &graph.ConstructionError{Type: graph.KindInvalidTensorSpec, Tensor: InputName, Details: err.Error()}
	}

	weight, err := g.normal(tensor.Shape{c, numClasses})
	if err != nil {
		return nil, err
	}

	built, err := graph.NewBuilder(GraphName).
		AddInput(in).
		AddInitializer(graph.NewInitializer(WeightName, weight)).
		AddNode(graph.Node{
			Name:    "global_avg_pool",
			OpType:  "GlobalAveragePool",
			Inputs:  []string{InputName},
			Outputs: []string{"pooled"},
		}).
		AddNode(graph.Node{
			Name:       "flatten",
			OpType:     "Flatten",
			Inputs:     []string{"pooled"},
			Outputs:    []string{"flattened"},
			Attributes: []graph.Attribute{graph.IntAttr("axis", 1)},
		}).
		AddNode(graph.Node{
			Name:    "linear",
			OpType:  "MatMul",
			Inputs:  []string{"flattened", WeightName},
			Outputs: []string{OutputName},
		}).
		AddOutput(graph.TensorSpec{Name: OutputName, ElemType: tensor.Float32, Shape: graph.Dims(b, numClasses)}).
		AddValueInfo(graph.TensorSpec{Name: "pooled", ElemType: tensor.Float32, Shape: graph.Dims(b, c, 1, 1)}).
		AddValueInfo(graph.TensorSpec{Name: "flattened", ElemType: tensor.Float32, Shape: graph.Dims(b, c)}).
		Build()
	if err != nil {
		return nil, err
	}

	g.logger.Info("synth.generated",
		"graph", GraphName,
		"input_shape", in.ShapeString(),
		"classes", numClasses,
	)

	return &graph.Model{
		Graph:           built,
		OpsetVersion:    OpsetVersion,
		IRVersion:       onnx.DefaultIRVersion,
		ProducerName:    version.Producer,
		ProducerVersion: version.Version,
		DocString:       "Mock breed classifier for pipeline testing",
		Metadata:        map[string]string{"model_type": "mock"},
	}, nil
}

func (g *Generator) normal(shape tensor.Shape) (*tensor.Raw, error) {
	values := make([]float32, shape.NumElements())
	for i := range values {
		values[i] = float32(g.rng.NormFloat64())
	}
	return tensor.FromFloat32(shape, tensor.Float32, values)
}
