package descriptor

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashuvision/modelport/internal/persist"
)

var now = time.Date(2026, 3, 14, 9, 26, 53, 589, time.UTC)

func TestLabels(t *testing.T) {
	require.Len(t, Breeds, 50)

	tests := []struct {
		n     int
		first string
		last  string
	}{
		{1, "Holstein Friesian", "Holstein Friesian"},
		{10, "Holstein Friesian", "Jaffarabadi"},
		{50, "Holstein Friesian", "Unknown Breed 5"},
		{52, "Holstein Friesian", "Class 51"},
	}
	for _, tt := range tests {
		labels := Labels(tt.n)
		require.Len(t, labels, tt.n)
		assert.Equal(t, tt.first, labels[0])
		assert.Equal(t, tt.last, labels[tt.n-1])
	}
	assert.Empty(t, Labels(0))
}

func TestNewMock(t *testing.T) {
	d := NewMock([4]int{1, 3, 224, 224}, 50, now)
	require.NoError(t, d.Validate())
	assert.Equal(t, MockName, d.Name)
	assert.Equal(t, Mock, d.ModelType)
	assert.Equal(t, 50, d.OutputClasses)
	assert.Len(t, d.Breeds, 50)
	assert.Equal(t, MockAccuracy, d.Accuracy.String())
	assert.Zero(t, d.CreatedAt.Nanosecond())
}

// TestJSONRoundTrip checks the breeds list keeps its length and order.
func TestJSONRoundTrip(t *testing.T) {
	for _, n := range []int{1, 5, 50, 75} {
		d := NewMock([4]int{2, 3, 64, 64}, n, now)
		data, err := Marshal(d)
		require.NoError(t, err)

		back, err := Unmarshal(data)
		require.NoError(t, err)
		assert.Equal(t, d.Breeds, back.Breeds)
		assert.Equal(t, d, back)
	}
}

func TestJSONSchema(t *testing.T) {
	data, err := Marshal(NewMock([4]int{1, 3, 224, 224}, 3, now))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.ElementsMatch(t, []string{
		"name", "version", "description", "input_shape", "output_classes",
		"breeds", "created_at", "model_type", "accuracy",
	}, keys(raw))
	assert.Equal(t, []any{1.0, 3.0, 224.0, 224.0}, raw["input_shape"])
	assert.Equal(t, "2026-03-14T09:26:53Z", raw["created_at"])
	assert.Equal(t, "mock", raw["model_type"])
	assert.Equal(t, "N/A (Mock Model)", raw["accuracy"])
}

func TestAccuracyJSON(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		score float64
		isNum bool
		str   string
	}{
		{"number", `0.913`, 0.913, true, "0.913"},
		{"integer", `1`, 1, true, "1"},
		{"sentinel", `"N/A"`, 0, false, "N/A"},
		{"labelled sentinel", `"N/A (Mock Model)"`, 0, false, "N/A (Mock Model)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Accuracy
			require.NoError(t, json.Unmarshal([]byte(tt.json), &a))
			score, ok := a.Value()
			assert.Equal(t, tt.isNum, ok)
			assert.InDelta(t, tt.score, score, 1e-12)
			assert.Equal(t, tt.str, a.String())

			out, err := json.Marshal(a)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(out))
		})
	}

	var a Accuracy
	assert.Error(t, json.Unmarshal([]byte(`true`), &a))
	assert.Error(t, json.Unmarshal([]byte(`""`), &a))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Descriptor)
	}{
		{"empty name", func(d *Descriptor) { d.Name = "" }},
		{"zero dim", func(d *Descriptor) { d.InputShape[2] = 0 }},
		{"no classes", func(d *Descriptor) { d.OutputClasses = 0; d.Breeds = nil }},
		{"label count", func(d *Descriptor) { d.Breeds = d.Breeds[:3] }},
		{"model type", func(d *Descriptor) { d.ModelType = "trained" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewMock([4]int{1, 3, 224, 224}, 5, now)
			tt.mutate(&d)
			assert.ErrorIs(t, d.Validate(), ErrInvalid)
			_, err := Marshal(d)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backend", "models", "model_info.json")
	d := NewExported("convnext_breed_model", "v0.1.0", [4]int{1, 3, 224, 224}, 50, now)
	require.NoError(t, Write(path, d))

	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, d, back)
	assert.Equal(t, Exported, back.ModelType)
}

func TestWriteInvalidLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_info.json")
	d := NewMock([4]int{1, 3, 224, 224}, 5, now)
	d.Breeds = nil

	err := Write(path, d)
	var perr *persist.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "encode", perr.Op)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name": 3}`), 0o600))

	_, err := Read(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Read(bad)
	var perr *persist.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "decode", perr.Op)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
