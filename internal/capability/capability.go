// Package capability tracks what the toolkit needs from its environment.
//
// A Registry lists the capabilities a run requires and the ones that have
// been provided. Missing is a pure set difference; detecting whether a
// capability is present is the caller's job (see Probe).
package capability

import (
	"fmt"
	"sort"
	"strings"
)

// Built-in capabilities. They are compiled into the binary and always
// provided.
const (
	ONNXCodec      = "onnx-codec"
	ArtifactReader = "born-reader"
	GraphValidator = "graph-validator"
)

// Environment capabilities, provided after a successful probe.
const (
	WritableRoot  = "writable-root"
	ArtifactStore = "artifact-store"
)

// Registry is a required set and a provided set of capability names.
type Registry struct {
	Required []string
	Provided map[string]bool
}

// Builtin returns a registry that requires and provides the built-in
// capabilities.
func Builtin() *Registry {
	r := &Registry{Provided: make(map[string]bool)}
	for _, name := range []string{ONNXCodec, ArtifactReader, GraphValidator} {
		r.Require(name)
		r.Provide(name)
	}
	return r
}

// Require adds name to the required set.
func (r *Registry) Require(name string) {
	for _, n := range r.Required {
		if n == name {
			return
		}
	}
	r.Required = append(r.Required, name)
}

// Provide marks name as available.
func (r *Registry) Provide(name string) {
	if r.Provided == nil {
		r.Provided = make(map[string]bool)
	}
	r.Provided[name] = true
}

// Missing returns the required capabilities that are not provided, sorted.
func Missing(r *Registry) []string {
	var missing []string
	for _, name := range r.Required {
		if !r.Provided[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Check returns a *DependencyError when anything is missing.
func Check(r *Registry) error {
	if missing := Missing(r); len(missing) > 0 {
		return &DependencyError{Missing: missing}
	}
	return nil
}

// Probe runs check and provides name when it succeeds. The check's error
// is returned for reporting.
func (r *Registry) Probe(name string, check func() error) error {
	if err := check(); err != nil {
		return fmt.Errorf("probe %s: %w", name, err)
	}
	r.Provide(name)
	return nil
}

// DependencyError lists capabilities a run needs but does not have.
type DependencyError struct {
	Missing []string
}

func (e *DependencyError) Error() string {
	return "missing capabilities: " + strings.Join(e.Missing, ", ")
}

// Kind returns the error family name.
func (e *DependencyError) Kind() string {
	return "DependencyError"
}
