// Package setup prepares a project root for the breed classifier: it checks
// capabilities, creates the data directories and installs a mock model when
// no real one is present.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pashuvision/modelport/internal/capability"
	"github.com/pashuvision/modelport/internal/persist"
	"github.com/pashuvision/modelport/internal/pipeline"
)

// Paths relative to the project root.
const (
	ModelsDir = "backend/models"
	ModelFile = "backend/models/convnext_breed_model.onnx"
	InfoFile  = "backend/models/model_info.json"
	Classes   = 50
)

// Directories created under the root.
var Directories = []string{
	"backend/models",
	"backend/data",
	"backend/data/images",
}

// NextSteps is printed after a successful run.
var NextSteps = []string{
	"Start the backend server: cd backend && npm run dev",
	"Start the frontend: cd frontend && npm run dev",
	"Access the application at http://localhost:5173",
}

// ErrVerify is returned when the model files are missing after setup.
var ErrVerify = errors.New("model files are missing")

// Pinger checks that a remote dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures Run.
type Options struct {
	Root     string
	SkipDeps bool
	MockOnly bool
	Runner   *pipeline.Runner // Nil builds a default runner
	Store    Pinger           // Required and probed when set
	Logger   *slog.Logger
	Out      io.Writer // Progress and next steps; nil discards
}

// Report describes what Run did.
type Report struct {
	Directories []string
	Mocked      bool
	ModelPath   string
	InfoPath    string
}

// Run performs setup under opts.Root.
func Run(ctx context.Context, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	root := opts.Root
	if root == "" {
		root = "."
	}

	if !opts.SkipDeps {
		if err := checkDependencies(ctx, root, opts.Store, logger); err != nil {
			return nil, err
		}
		fmt.Fprintln(out, "All capabilities present")
	}

	report := &Report{
		ModelPath: filepath.Join(root, filepath.FromSlash(ModelFile)),
		InfoPath:  filepath.Join(root, filepath.FromSlash(InfoFile)),
	}
	for _, dir := range Directories {
		path := filepath.Join(root, filepath.FromSlash(dir))
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, &persist.PersistenceError{Op: "mkdir", Path: path, Err: err}
		}
		report.Directories = append(report.Directories, path)
		fmt.Fprintf(out, "Created directory: %s\n", dir)
	}

	if opts.MockOnly || !exists(report.ModelPath) {
		runner := opts.Runner
		if runner == nil {
			r, err := pipeline.New(pipeline.WithLogger(logger))
			if err != nil {
				return nil, err
			}
			runner = r
		}
		if _, err := runner.MockCreate(ctx, pipeline.MockRequest{
			Output:    report.ModelPath,
			Info:      report.InfoPath,
			Classes:   Classes,
			InputSize: pipeline.DefaultInputSize,
		}); err != nil {
			return nil, fmt.Errorf("create mock model: %w", err)
		}
		report.Mocked = true
		fmt.Fprintln(out, "Mock model created")
	}

	for _, path := range []string{report.ModelPath, report.InfoPath} {
		if !exists(path) {
			return nil, &persist.PersistenceError{Op: "verify", Path: path, Err: ErrVerify}
		}
	}
	logger.Info("setup.done", slog.String("root", root), slog.Bool("mocked", report.Mocked))

	fmt.Fprintln(out, "Setup completed")
	fmt.Fprintln(out, "\nNext steps:")
	for i, step := range NextSteps {
		fmt.Fprintf(out, "%d. %s\n", i+1, step)
	}
	return report, nil
}

// checkDependencies probes the environment and returns a
// *capability.DependencyError listing everything missing.
func checkDependencies(ctx context.Context, root string, store Pinger, logger *slog.Logger) error {
	reg := capability.Builtin()
	reg.Require(capability.WritableRoot)
	if err := reg.Probe(capability.WritableRoot, func() error { return probeWritable(root) }); err != nil {
		logger.Warn("setup.probe_failed", slog.String("capability", capability.WritableRoot), slog.Any("error", err))
	}
	if store != nil {
		reg.Require(capability.ArtifactStore)
		if err := reg.Probe(capability.ArtifactStore, func() error { return store.Ping(ctx) }); err != nil {
			logger.Warn("setup.probe_failed", slog.String("capability", capability.ArtifactStore), slog.Any("error", err))
		}
	}
	return capability.Check(reg)
}

// probeWritable creates root if needed and writes a scratch file in it.
func probeWritable(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(root, ".modelport-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Remove(name)
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
