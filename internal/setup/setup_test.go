package setup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashuvision/modelport/internal/capability"
	"github.com/pashuvision/modelport/internal/cli"
	"github.com/pashuvision/modelport/internal/descriptor"
	"github.com/pashuvision/modelport/internal/graph"
	"github.com/pashuvision/modelport/internal/persist"
)

type fakeStore struct{ err error }

func (s fakeStore) Ping(context.Context) error { return s.err }

func TestRunFreshRoot(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer

	report, err := Run(context.Background(), Options{Root: root, Out: &out})
	require.NoError(t, err)
	assert.True(t, report.Mocked)

	for _, dir := range Directories {
		assert.DirExists(t, filepath.Join(root, dir))
	}

	m, err := persist.Load(filepath.Join(root, ModelFile))
	require.NoError(t, err)
	assert.Equal(t, graph.Dims(1, Classes), m.Graph.Outputs[0].Shape)

	d, err := descriptor.Read(filepath.Join(root, InfoFile))
	require.NoError(t, err)
	assert.Equal(t, Classes, d.OutputClasses)
	assert.Len(t, d.Breeds, Classes)

	assert.Contains(t, out.String(), "Next steps:")
	assert.Contains(t, out.String(), "3. Access the application at http://localhost:5173")
}

func TestRunKeepsExistingModel(t *testing.T) {
	root := t.TempDir()
	_, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)

	model := filepath.Join(root, ModelFile)
	before, err := os.ReadFile(model)
	require.NoError(t, err)

	report, err := Run(context.Background(), Options{Root: root, SkipDeps: true})
	require.NoError(t, err)
	assert.False(t, report.Mocked)

	after, err := os.ReadFile(model)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunMockOnlyRegenerates(t *testing.T) {
	root := t.TempDir()
	_, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)

	report, err := Run(context.Background(), Options{Root: root, MockOnly: true})
	require.NoError(t, err)
	assert.True(t, report.Mocked)
}

func TestRunMissingInfoFailsVerify(t *testing.T) {
	root := t.TempDir()
	model := filepath.Join(root, ModelFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(model), 0o755))
	require.NoError(t, os.WriteFile(model, []byte("placeholder"), 0o600))

	_, err := Run(context.Background(), Options{Root: root, SkipDeps: true})
	assert.ErrorIs(t, err, ErrVerify)

	var perr *persist.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, filepath.Join(root, InfoFile), perr.Path)

	var out bytes.Buffer
	assert.Equal(t, 1, cli.Report(&out, err))
	assert.True(t, strings.HasPrefix(out.String(), "PersistenceError: "), out.String())
}

func TestRunBlockedDirectoryIsPersistenceError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "backend"), []byte("not a directory"), 0o600))

	_, err := Run(context.Background(), Options{Root: root, SkipDeps: true})
	var perr *persist.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "mkdir", perr.Op)

	var out bytes.Buffer
	assert.Equal(t, 1, cli.Report(&out, err))
	assert.True(t, strings.HasPrefix(out.String(), "PersistenceError: mkdir "), out.String())
}

func TestRunStoreUnreachable(t *testing.T) {
	root := t.TempDir()
	_, err := Run(context.Background(), Options{Root: root, Store: fakeStore{err: errors.New("connection refused")}})

	var depErr *capability.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{capability.ArtifactStore}, depErr.Missing)
	assert.NoDirExists(t, filepath.Join(root, "backend"))
}

func TestRunStoreReachable(t *testing.T) {
	_, err := Run(context.Background(), Options{Root: t.TempDir(), Store: fakeStore{}})
	require.NoError(t, err)
}

func TestRunSkipDepsIgnoresStore(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Root: t.TempDir(), SkipDeps: true, Store: fakeStore{err: errors.New("down")},
	})
	require.NoError(t, err)
}

func TestProbeWritable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, probeWritable(filepath.Join(dir, "nested", "root")))

	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	assert.Error(t, probeWritable(filepath.Join(blocker, "root")))

	entries, err := os.ReadDir(filepath.Join(dir, "nested", "root"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
