package nn

import (
	"fmt"
	"sort"

	"github.com/pashuvision/modelport/internal/serialization"
)

// builder constructs a module from its artifact description.
type builder func(spec serialization.LayerSpec) (Module, error)

var builders = map[string]builder{
	"Conv2d":        buildConv2d,
	"BatchNorm2d":   buildBatchNorm2d,
	"ReLU":          func(serialization.LayerSpec) (Module, error) { return NewReLU(), nil },
	"Sigmoid":       func(serialization.LayerSpec) (Module, error) { return NewSigmoid(), nil },
	"Softmax":       func(serialization.LayerSpec) (Module, error) { return NewSoftmax(), nil },
	"MaxPool2d":     buildMaxPool2d,
	"GlobalAvgPool": func(serialization.LayerSpec) (Module, error) { return NewGlobalAvgPool(), nil },
	"Flatten":       func(serialization.LayerSpec) (Module, error) { return NewFlatten(), nil },
	"Dropout":       buildDropout,
	"Linear":        buildLinear,
}

// LayerTypes returns the supported layer type names, sorted.
func LayerTypes() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromSpecs builds a Sequential from an artifact's layer list. Weights are
// freshly initialized; load them with LoadStateDict.
func FromSpecs(specs []serialization.LayerSpec) (*Sequential, error) {
	seq := NewSequential()
	for i, spec := range specs {
		build, ok := builders[spec.Type]
		if !ok {
			return nil, fmt.Errorf("layer %d: %w %q", i, ErrUnknownLayer, spec.Type)
		}
		m, err := build(spec)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, spec.Type, err)
		}
		seq.Add(m)
	}
	return seq, nil
}

// params reads integer hyperparameters, failing when one is missing, not a
// whole number, or below min.
type params struct {
	spec serialization.LayerSpec
	err  error
}

func (p *params) intParam(key string, def, minimum int, required bool) int {
	if p.err != nil {
		return 0
	}
	if _, ok := p.spec.Params[key]; !ok && required {
		p.err = fmt.Errorf("%w: missing param %q", ErrInvalidConfig, key)
		return 0
	}
	v, err := p.spec.IntParam(key, def)
	if err != nil {
		p.err = fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		return 0
	}
	if v < minimum {
		p.err = fmt.Errorf("%w: param %q is %d, must be >= %d", ErrInvalidConfig, key, v, minimum)
		return 0
	}
	return v
}

func buildLinear(spec serialization.LayerSpec) (Module, error) {
	p := &params{spec: spec}
	in := p.intParam("in_features", 0, 1, true)
	out := p.intParam("out_features", 0, 1, true)
	bias := p.intParam("bias", 1, 0, false)
	if p.err != nil {
		return nil, p.err
	}
	return NewLinear(in, out, bias != 0), nil
}

func buildConv2d(spec serialization.LayerSpec) (Module, error) {
	p := &params{spec: spec}
	in := p.intParam("in_channels", 0, 1, true)
	out := p.intParam("out_channels", 0, 1, true)
	kernel := p.intParam("kernel_size", 0, 1, true)
	stride := p.intParam("stride", 1, 1, false)
	padding := p.intParam("padding", 0, 0, false)
	bias := p.intParam("bias", 1, 0, false)
	if p.err != nil {
		return nil, p.err
	}
	return NewConv2d(in, out, kernel, stride, padding, bias != 0), nil
}

func buildBatchNorm2d(spec serialization.LayerSpec) (Module, error) {
	p := &params{spec: spec}
	features := p.intParam("num_features", 0, 1, true)
	if p.err != nil {
		return nil, p.err
	}
	eps := spec.Param("eps", 1e-5)
	if eps <= 0 {
		return nil, fmt.Errorf("%w: eps must be positive, got %v", ErrInvalidConfig, eps)
	}
	return NewBatchNorm2d(features, eps, spec.Param("momentum", 0.1)), nil
}

func buildMaxPool2d(spec serialization.LayerSpec) (Module, error) {
	p := &params{spec: spec}
	kernel := p.intParam("kernel_size", 0, 1, true)
	stride := p.intParam("stride", kernel, 1, false)
	padding := p.intParam("padding", 0, 0, false)
	if p.err != nil {
		return nil, p.err
	}
	if 2*padding > kernel {
		return nil, fmt.Errorf("%w: padding %d exceeds half of kernel %d", ErrInvalidConfig, padding, kernel)
	}
	return NewMaxPool2d(kernel, stride, padding), nil
}

func buildDropout(spec serialization.LayerSpec) (Module, error) {
	rate := spec.Param("p", 0.5)
	if rate < 0 || rate >= 1 {
		return nil, fmt.Errorf("%w: p must be in [0, 1), got %v", ErrInvalidConfig, rate)
	}
	return NewDropout(rate), nil
}
