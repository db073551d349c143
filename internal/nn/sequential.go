package nn

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pashuvision/modelport/internal/serialization"
	"github.com/pashuvision/modelport/internal/tensor"
)

// Sequential is a container that chains modules in order.
//
// The output of each module becomes the input of the next. Parameters are
// named "<index>.<param>" (e.g. "0.weight", "3.running_mean").
//
// New containers start in training mode; call Eval before tracing.
type Sequential struct {
	modules  []Module
	training bool
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	s := &Sequential{training: true}
	for _, m := range modules {
		s.Add(m)
	}
	return s
}

// Add appends a module, switching it to the container's mode.
func (s *Sequential) Add(m Module) {
	if sw, ok := m.(Switchable); ok {
		sw.SetTraining(s.training)
	}
	s.modules = append(s.modules, m)
}

// Len returns the number of modules.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the i-th module.
func (s *Sequential) Module(i int) Module {
	return s.modules[i]
}

// Train puts every module into training mode.
func (s *Sequential) Train() {
	s.setTraining(true)
}

// Eval puts every module into inference mode.
func (s *Sequential) Eval() {
	s.setTraining(false)
}

// IsTraining reports the container's mode.
func (s *Sequential) IsTraining() bool {
	return s.training
}

func (s *Sequential) setTraining(training bool) {
	s.training = training
	for _, m := range s.modules {
		if sw, ok := m.(Switchable); ok {
			sw.SetTraining(training)
		}
	}
}

// Specs returns the architecture description of every module.
func (s *Sequential) Specs() []serialization.LayerSpec {
	specs := make([]serialization.LayerSpec, len(s.modules))
	for i, m := range s.modules {
		specs[i] = m.Spec()
	}
	return specs
}

// StateDict returns all parameters keyed "<index>.<param>".
func (s *Sequential) StateDict() serialization.StateDict {
	dict := make(serialization.StateDict)
	for i, m := range s.modules {
		for _, p := range m.Parameters() {
			dict[fmt.Sprintf("%d.%s", i, p.Name())] = p.Value()
		}
	}
	return dict
}

// LoadStateDict loads weights produced by StateDict. Every parameter must be
// present with its exact shape and no extra keys are accepted.
func (s *Sequential) LoadStateDict(dict map[string]*tensor.Raw) error {
	seen := make(map[string]bool, len(dict))
	for i, m := range s.modules {
		for _, p := range m.Parameters() {
			key := fmt.Sprintf("%d.%s", i, p.Name())
			raw, ok := dict[key]
			if !ok {
				return fmt.Errorf("%w: %s", ErrMissingWeight, key)
			}
			if err := p.Load(raw); err != nil {
				return fmt.Errorf("layer %d (%s): %w", i, m.Spec().Type, err)
			}
			seen[key] = true
		}
	}

	var extra []string
	for key := range dict {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("%w: %v", ErrUnexpected, extra)
	}
	return nil
}

// Trace chains every module's trace. Module i uses scope "<i>".
func (s *Sequential) Trace(t *Tracer, input string) (string, error) {
	current := input
	for i, m := range s.modules {
		out, err := m.Trace(t, strconv.Itoa(i), current)
		if err != nil {
			return "", fmt.Errorf("layer %d (%s): %w", i, m.Spec().Type, err)
		}
		current = out
	}
	return current, nil
}
