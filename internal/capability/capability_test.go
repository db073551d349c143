package capability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinHasNothingMissing(t *testing.T) {
	r := Builtin()
	assert.Empty(t, Missing(r))
	assert.NoError(t, Check(r))
	assert.ElementsMatch(t, []string{ONNXCodec, ArtifactReader, GraphValidator}, r.Required)
}

func TestMissing(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		provided []string
		want     []string
	}{
		{"empty", nil, nil, nil},
		{"all provided", []string{"a", "b"}, []string{"b", "a"}, nil},
		{"extra provided", []string{"a"}, []string{"a", "z"}, nil},
		{"sorted", []string{"c", "a", "b"}, []string{"b"}, []string{"a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Registry{}
			for _, n := range tt.required {
				r.Require(n)
			}
			for _, n := range tt.provided {
				r.Provide(n)
			}
			assert.Equal(t, tt.want, Missing(r))
		})
	}
}

func TestMissingIsPure(t *testing.T) {
	r := &Registry{Required: []string{"b", "a"}}
	first := Missing(r)
	second := Missing(r)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"b", "a"}, r.Required)
	assert.Empty(t, r.Provided)
}

func TestRequireDeduplicates(t *testing.T) {
	r := &Registry{}
	r.Require(WritableRoot)
	r.Require(WritableRoot)
	assert.Len(t, r.Required, 1)
}

func TestCheckReturnsDependencyError(t *testing.T) {
	r := Builtin()
	r.Require(ArtifactStore)
	r.Require(WritableRoot)

	err := Check(r)
	var derr *DependencyError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, []string{ArtifactStore, WritableRoot}, derr.Missing)
	assert.Equal(t, "DependencyError", derr.Kind())
	assert.Equal(t, "missing capabilities: artifact-store, writable-root", err.Error())
}

func TestProbe(t *testing.T) {
	r := &Registry{}
	r.Require(WritableRoot)
	r.Require(ArtifactStore)

	require.NoError(t, r.Probe(WritableRoot, func() error { return nil }))
	err := r.Probe(ArtifactStore, func() error { return errors.New("connection refused") })
	assert.ErrorContains(t, err, "probe artifact-store: connection refused")

	assert.Equal(t, []string{ArtifactStore}, Missing(r))
}
