// Package descriptor defines the JSON sidecar written next to a model file:
// display name, input shape, class labels and provenance.
package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pashuvision/modelport/internal/persist"
)

// ModelType tags how a model was produced.
type ModelType string

// Model types.
const (
	Mock     ModelType = "mock"
	Exported ModelType = "exported"
)

// Mock descriptor defaults.
const (
	MockName        = "Mock Breed Classifier"
	MockVersion     = "1.0.0"
	MockDescription = "Mock model for testing PashuVision"
	MockAccuracy    = "N/A (Mock Model)"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid descriptor")

// Descriptor is the model_info.json record.
type Descriptor struct {
	Name          string    `json:"name"`
	Version       string    `json:"version"`
	Description   string    `json:"description"`
	InputShape    [4]int    `json:"input_shape"`
	OutputClasses int       `json:"output_classes"`
	Breeds        []string  `json:"breeds"`
	CreatedAt     time.Time `json:"created_at"`
	ModelType     ModelType `json:"model_type"`
	Accuracy      Accuracy  `json:"accuracy"`
}

// NewMock describes a synthetic model.
func NewMock(inputShape [4]int, classes int, now time.Time) Descriptor {
	return Descriptor{
		Name:          MockName,
		Version:       MockVersion,
		Description:   MockDescription,
		InputShape:    inputShape,
		OutputClasses: classes,
		Breeds:        Labels(classes),
		CreatedAt:     now.UTC().Truncate(time.Second),
		ModelType:     Mock,
		Accuracy:      NotApplicable(MockAccuracy),
	}
}

// NewExported describes a model converted from a trained artifact.
func NewExported(name, version string, inputShape [4]int, classes int, now time.Time) Descriptor {
	return Descriptor{
		Name:          name,
		Version:       version,
		Description:   "Exported breed classifier",
		InputShape:    inputShape,
		OutputClasses: classes,
		Breeds:        Labels(classes),
		CreatedAt:     now.UTC().Truncate(time.Second),
		ModelType:     Exported,
		Accuracy:      NotApplicable("N/A"),
	}
}

// Validate checks the record's invariants.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalid)
	}
	for i, s := range d.InputShape {
		if s <= 0 {
			return fmt.Errorf("%w: input_shape[%d] is %d", ErrInvalid, i, s)
		}
	}
	if d.OutputClasses <= 0 {
		return fmt.Errorf("%w: output_classes is %d", ErrInvalid, d.OutputClasses)
	}
	if len(d.Breeds) != d.OutputClasses {
		return fmt.Errorf("%w: %d breeds for %d output classes", ErrInvalid, len(d.Breeds), d.OutputClasses)
	}
	if d.ModelType != Mock && d.ModelType != Exported {
		return fmt.Errorf("%w: model_type %q", ErrInvalid, d.ModelType)
	}
	return nil
}

// Marshal encodes d as indented JSON.
func Marshal(d Descriptor) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes and validates a descriptor.
func Unmarshal(data []byte) (Descriptor, error) {
	var d Descriptor
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&d); err != nil {
		return Descriptor{}, fmt.Errorf("decode descriptor: %w", err)
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Write stores d at path atomically.
func Write(path string, d Descriptor) error {
	data, err := Marshal(d)
	if err != nil {
		return &persist.PersistenceError{Op: "encode", Path: path, Err: err}
	}
	return persist.WriteFileAtomic(path, data, 0o644)
}

// Read loads a descriptor from path.
func Read(path string) (Descriptor, error) {
	//nolint:gosec // G304: path is caller supplied.
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, &persist.PersistenceError{Op: "read", Path: path, Err: err}
	}
	d, err := Unmarshal(data)
	if err != nil {
		return Descriptor{}, &persist.PersistenceError{Op: "decode", Path: path, Err: err}
	}
	return d, nil
}

// Accuracy is either a score or a "not applicable" label. It encodes as a
// JSON number or string respectively.
type Accuracy struct {
	score float64
	label string
}

// Score returns a numeric accuracy.
func Score(v float64) Accuracy {
	return Accuracy{score: v}
}

// NotApplicable returns a textual accuracy such as "N/A (Mock Model)".
func NotApplicable(label string) Accuracy {
	return Accuracy{label: label}
}

// Value returns the score and whether one is set.
func (a Accuracy) Value() (float64, bool) {
	return a.score, a.label == ""
}

// String renders the score or label.
func (a Accuracy) String() string {
	if a.label != "" {
		return a.label
	}
	return strconv.FormatFloat(a.score, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (a Accuracy) MarshalJSON() ([]byte, error) {
	if a.label != "" {
		return json.Marshal(a.label)
	}
	return json.Marshal(a.score)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Accuracy) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		if label == "" {
			return errors.New("accuracy: empty string")
		}
		*a = NotApplicable(label)
		return nil
	}
	var score float64
	if err := json.Unmarshal(data, &score); err != nil {
		return fmt.Errorf("accuracy must be a number or string: %s", data)
	}
	*a = Score(score)
	return nil
}
