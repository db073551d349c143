package persist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/tensor"
)

func identityModel(t *testing.T) *graph.Model {
	t.Helper()
	spec := graph.TensorSpec{Name: "x", ElemType: tensor.Float32, Shape: graph.Dims(1, 4)}
	out := graph.TensorSpec{Name: "y", ElemType: tensor.Float32, Shape: graph.Dims(1, 4)}
	g, err := graph.Build("identity",
		[]graph.Node{{Name: "id", OpType: "Identity", Inputs: []string{"x"}, Outputs: []string{"y"}}},
		[]graph.TensorSpec{spec}, []graph.TensorSpec{out}, nil)
	require.NoError(t, err)
	return &graph.Model{Graph: g, OpsetVersion: 11, ProducerName: "test"}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "model.onnx")

	require.NoError(t, Save(path, identityModel(t)))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "identity", m.Graph.Name)
	assert.Equal(t, int64(11), m.OpsetVersion)
	assert.Equal(t, []string{"Identity"}, m.Graph.OpTypes())
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.onnx")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	require.NoError(t, Save(path, identityModel(t)))

	_, err := Load(path)
	require.NoError(t, err)
}

func TestWriteFileAtomicFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()

	// The destination is a non-empty directory, so the final rename fails.
	target := filepath.Join(dir, "model.onnx")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o755))

	err := WriteFileAtomic(target, []byte("data"), 0o644)
	require.Error(t, err)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "write", perr.Op)
	assert.Equal(t, "PersistenceError", perr.Kind())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file left behind")
	assert.True(t, entries[0].IsDir())
}

func TestWriteFileAtomicParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := WriteFileAtomic(filepath.Join(blocker, "model.onnx"), []byte("data"), 0o644)
	assert.Error(t, err)
}

func TestWriteFileAtomicEmptyPath(t *testing.T) {
	assert.ErrorIs(t, WriteFileAtomic("", nil, 0o644), ErrEmptyPath)
}

func TestSaveRejectsModelWithoutGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.onnx")
	err := Save(path, &graph.Model{OpsetVersion: 11})

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "encode", perr.Op)
	assert.NoFileExists(t, path)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.onnx"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(dir, "garbage.onnx")
	require.NoError(t, os.WriteFile(garbage, []byte{0xFF, 0xFF, 0xFF}, 0o600))
	_, err = Load(garbage)
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "decode", perr.Op)
}
