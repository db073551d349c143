// Package pipeline runs the convert and mock-create flows: build a model,
// validate it, persist it, write its descriptor and optionally publish the
// outputs to an artifact store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pashuvision/modelport/internal/artifact"
	"github.com/pashuvision/modelport/internal/descriptor"
	"github.com/pashuvision/modelport/internal/export"
	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/persist"
	"github.com/pashuvision/modelport/internal/synth"
	"github.com/pashuvision/modelport/internal/validate"
	"github.com/pashuvision/modelport/internal/version"
)

// DefaultInputSize is the placeholder input used when none is given.
var DefaultInputSize = [4]int{1, 3, 224, 224}

// DefaultClasses is the class count mock-create uses when --classes is unset.
const DefaultClasses = 50

// ErrNoClasses is returned when an exported model's class count cannot be
// read from its output shape.
var ErrNoClasses = errors.New("output has no fixed class dimension")

// Runner wires the exporter, generator, validator and artifact store.
type Runner struct {
	logger    *slog.Logger
	exporter  *export.Exporter
	generator *synth.Generator
	validator *validate.Validator
	store     artifact.Store
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger shared by every stage. A nil logger discards
// output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithExporter replaces the default exporter.
func WithExporter(e *export.Exporter) Option {
	return func(r *Runner) { r.exporter = e }
}

// WithGenerator replaces the default generator.
func WithGenerator(g *synth.Generator) Option {
	return func(r *Runner) { r.generator = g }
}

// WithStore enables publishing to s.
func WithStore(s artifact.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithClock sets the time source for descriptor timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner. Components not supplied through options are built
// with the runner's logger.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.exporter == nil {
		e, err := export.New(export.WithLogger(r.logger))
		if err != nil {
			return nil, fmt.Errorf("create exporter: %w", err)
		}
		r.exporter = e
	}
	if r.generator == nil {
		r.generator = synth.New(synth.WithLogger(r.logger))
	}
	if r.validator == nil {
		r.validator = validate.New(validate.WithLogger(r.logger))
	}
	return r, nil
}

// ConvertRequest describes one conversion.
type ConvertRequest struct {
	Input     string
	Output    string
	InputSize [4]int
	Info      string // Optional descriptor path
	Publish   bool
}

// MockRequest describes one synthetic model.
type MockRequest struct {
	Output    string
	Info      string
	Source    string // Optional .born copy of the mock weights
	Classes   int
	InputSize [4]int
	Publish   bool
}

// Result reports what a run wrote.
type Result struct {
	Model      *graph.Model
	Output     string
	Info       string
	Source     string
	Descriptor *descriptor.Descriptor
	Published  []string
}

// Convert exports req.Input, validates the graph and writes it to
// req.Output. Nothing is written when export or validation fails.
func (r *Runner) Convert(ctx context.Context, req ConvertRequest) (*Result, error) {
	size := inputSize(req.InputSize)
	m, err := r.exporter.Export(req.Input, size)
	if err != nil {
		return nil, err
	}
	if err := r.validator.Validate(m); err != nil {
		return nil, err
	}
	if err := persist.Save(req.Output, m); err != nil {
		return nil, err
	}
	res := &Result{Model: m, Output: req.Output}

	if req.Info != "" {
		classes, err := outputClasses(m)
		if err != nil {
			return nil, &export.ExportError{Path: req.Input, Err: err}
		}
		d := descriptor.NewExported(m.Graph.Name, version.Version, size, classes, r.now())
		if err := descriptor.Write(req.Info, d); err != nil {
			return nil, err
		}
		res.Info, res.Descriptor = req.Info, &d
	}

	r.logger.Info("convert.done",
		slog.String("input", req.Input),
		slog.String("output", req.Output),
		slog.Int("nodes", len(m.Graph.Nodes)),
	)
	return res, r.publish(ctx, req.Publish, res)
}

// MockCreate generates a synthetic classifier, writes it to req.Output and
// its descriptor to req.Info. req.Classes must be at least 1.
func (r *Runner) MockCreate(ctx context.Context, req MockRequest) (*Result, error) {
	size := inputSize(req.InputSize)
	classes := req.Classes
	m, err := r.generator.Generate(size, classes)
	if err != nil {
		return nil, err
	}
	if err := r.validator.Validate(m); err != nil {
		return nil, err
	}
	if err := persist.Save(req.Output, m); err != nil {
		return nil, err
	}
	d := descriptor.NewMock(size, classes, r.now())
	if err := descriptor.Write(req.Info, d); err != nil {
		return nil, err
	}

	res := &Result{Model: m, Output: req.Output, Info: req.Info, Descriptor: &d}
	if req.Source != "" {
		if err := writeMockSource(req.Source, m, size[1], classes); err != nil {
			return nil, err
		}
		res.Source = req.Source
	}
	r.logger.Info("mock.done",
		slog.String("output", req.Output),
		slog.String("info", req.Info),
		slog.Int("classes", classes),
	)
	return res, r.publish(ctx, req.Publish, res)
}

func (r *Runner) publish(ctx context.Context, enabled bool, res *Result) error {
	if !enabled {
		return nil
	}
	if r.store == nil {
		return &persist.PersistenceError{Op: "publish", Path: res.Output, Err: errors.New("no artifact store configured")}
	}
	files := []string{res.Output}
	if res.Info != "" {
		files = append(files, res.Info)
	}
	if res.Source != "" {
		files = append(files, res.Source)
	}
	keys, err := artifact.Publish(ctx, r.store, runID(res.Output), files...)
	if err != nil {
		return &persist.PersistenceError{Op: "publish", Path: res.Output, Err: err}
	}
	res.Published = keys
	r.logger.Info("artifact.published", slog.Any("keys", keys))
	return nil
}

func inputSize(s [4]int) [4]int {
	if s == [4]int{} {
		return DefaultInputSize
	}
	return s
}

// outputClasses reads the last dimension of the single graph output.
func outputClasses(m *graph.Model) (int, error) {
	if len(m.Graph.Outputs) != 1 {
		return 0, ErrNoClasses
	}
	shape := m.Graph.Outputs[0].Shape
	if len(shape) == 0 || shape[len(shape)-1].IsSymbolic() {
		return 0, ErrNoClasses
	}
	return int(shape[len(shape)-1].Value), nil
}

// runID is the output file name without its extension.
func runID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
