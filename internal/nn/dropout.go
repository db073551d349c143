package nn

import (
	"fmt"

	"github.com/pashuvision/modelport/internal/serialization"
)

// Dropout zeroes random elements during training and is the identity at
// inference. Random masks are not representable statically, so only the
// inference form can be traced; it emits no node.
type Dropout struct {
	mode

	p float64
}

// NewDropout creates a Dropout layer with drop probability p.
func NewDropout(p float64) *Dropout {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: p must be in [0, 1), got %v", p))
	}
	return &Dropout{p: p}
}

// Spec describes the layer.
func (d *Dropout) Spec() serialization.LayerSpec {
	return serialization.LayerSpec{Type: "Dropout", Params: map[string]float64{"p": d.p}}
}

// Parameters returns nil.
func (d *Dropout) Parameters() []*Parameter {
	return nil
}

// Trace returns input unchanged in inference mode.
func (d *Dropout) Trace(_ *Tracer, _, input string) (string, error) {
	if d.Training() {
		return "", fmt.Errorf("%w: Dropout samples a random mask", ErrTrainingMode)
	}
	return input, nil
}
