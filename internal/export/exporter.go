// Package export turns a .born artifact into a portable graph model.
//
// The artifact's layer list is rebuilt as an nn.Sequential, its weights are
// loaded, the model is switched to inference mode and traced against a
// placeholder input. The traced graph has one input named "input" and one
// output named "output", both with a symbolic batch axis.
package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/nn"
	"github.com/pashuvision/modelport/internal/onnx"
	"github.com/pashuvision/modelport/internal/serialization"
	"github.com/pashuvision/modelport/internal/tensor"
	"github.com/pashuvision/modelport/internal/version"
)

// Graph-level constants of every exported model.
const (
	OpsetVersion = 11
	InputName    = "input"
	OutputName   = "output"
)

// DefaultCacheSize is the number of parsed artifacts kept by default.
const DefaultCacheSize = 8

// source is a parsed artifact.
type source struct {
	header  serialization.Header
	weights serialization.StateDict
}

// Exporter converts artifacts. It is not safe for concurrent use.
type Exporter struct {
	logger *slog.Logger
	cache  *lru.Cache[string, source]
}

// Option configures an Exporter.
type Option func(*exporterConfig)

type exporterConfig struct {
	logger    *slog.Logger
	cacheSize int
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *exporterConfig) { c.logger = l }
}

// WithCacheSize sets how many parsed artifacts are kept. Zero disables the
// cache.
func WithCacheSize(n int) Option {
	return func(c *exporterConfig) { c.cacheSize = n }
}

// New creates an Exporter.
func New(opts ...Option) (*Exporter, error) {
	cfg := exporterConfig{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := &Exporter{logger: cfg.logger}
	if cfg.cacheSize > 0 {
		cache, err := lru.New[string, source](cfg.cacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = cache
	}
	return e, nil
}

// Export loads the artifact at sourcePath and traces it with a placeholder
// input of inputShape (batch, channels, height, width).
//
// Errors are *LoadError, *TraceError or *ExportError.
func (e *Exporter) Export(sourcePath string, inputShape [4]int) (*graph.Model, error) {
	src, err := e.load(sourcePath)
	if err != nil {
		return nil, &LoadError{Path: sourcePath, Err: err}
	}

	model, err := nn.FromSpecs(src.header.Layers)
	if err != nil {
		return nil, &LoadError{Path: sourcePath, Err: err}
	}
	if err := model.LoadStateDict(src.weights); err != nil {
		return nil, &LoadError{Path: sourcePath, Err: err}
	}
	model.Eval()

	shape := tensor.Shape(inputShape[:])
	if err := shape.Validate(); err != nil {
		return nil, &TraceError{Path: sourcePath, Shape: inputShape, Err: fmt.Errorf("%w: %w", ErrInputShape, err)}
	}

	tracer := nn.NewTracer(InputName, shape)
	final, err := model.Trace(tracer, InputName)
	if err != nil {
		return nil, &TraceError{Path: sourcePath, Shape: inputShape, Err: err}
	}

	g, err := tracer.Finish(graphName(sourcePath), final, OutputName, true)
	if err != nil {
		var cerr *graph.ConstructionError
		if errors.As(err, &cerr) {
			return nil, &ExportError{Path: sourcePath, Err: err}
		}
		return nil, &TraceError{Path: sourcePath, Shape: inputShape, Err: err}
	}

	metadata := map[string]string{
		"source_format":  "born",
		"source_version": src.header.BornVersion,
	}
	if src.header.ModelType != "" {
		metadata["source_model_type"] = src.header.ModelType
	}
	for k, v := range src.header.Metadata {
		if _, ok := metadata[k]; !ok {
			metadata[k] = v
		}
	}

	e.logger.Info("export.traced",
		"path", sourcePath,
		"input_shape", shape.String(),
		"nodes", len(g.Nodes),
		"initializers", len(g.Initializers),
	)

	return &graph.Model{
		Graph:           g,
		OpsetVersion:    OpsetVersion,
		IRVersion:       onnx.DefaultIRVersion,
		ProducerName:    version.Producer,
		ProducerVersion: version.Version,
		Metadata:        metadata,
	}, nil
}

// load reads an artifact, reusing a cached parse when the file's size and
// modification time are unchanged.
func (e *Exporter) load(path string) (source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return source{}, err
	}
	if info.IsDir() {
		return source{}, fmt.Errorf("%s is a directory", path)
	}

	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			e.logger.Debug("export.loaded", "path", path, "cached", true)
			return cached, nil
		}
	}

	header, weights, err := serialization.ReadFile(path)
	if err != nil {
		return source{}, err
	}
	if len(header.Layers) == 0 {
		return source{}, ErrNoLayers
	}

	src := source{header: header, weights: weights}
	if e.cache != nil {
		e.cache.Add(key, src)
	}
	e.logger.Debug("export.loaded",
		"path", path,
		"cached", false,
		"layers", len(header.Layers),
		"tensors", len(weights),
	)
	return src, nil
}

func graphName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
