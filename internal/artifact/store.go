// Package artifact publishes persisted models and descriptors to an object
// store. Objects are keyed "<run>/<path>".
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Get for a missing object.
var ErrNotFound = errors.New("artifact not found")

// Store persists run outputs.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
}

// Publish uploads local files under runID, keyed by base name. It returns
// the object keys written.
func Publish(ctx context.Context, store Store, runID string, files ...string) ([]string, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	keys := make([]string, 0, len(files))
	for _, file := range files {
		//nolint:gosec // G304: files are outputs this process just wrote.
		content, err := os.ReadFile(file)
		if err != nil {
			return keys, fmt.Errorf("read %s: %w", file, err)
		}
		name := filepath.Base(file)
		if err := store.Put(ctx, runID, name, content); err != nil {
			return keys, fmt.Errorf("put %s: %w", name, err)
		}
		keys = append(keys, objectKey(runID, name))
	}
	return keys, nil
}

func checkKey(runID, path string) (string, string, error) {
	runID = strings.Trim(strings.TrimSpace(runID), "/")
	path = strings.TrimSpace(path)
	if runID == "" {
		return "", "", fmt.Errorf("run_id is required")
	}
	if path == "" {
		return "", "", fmt.Errorf("path is required")
	}
	return runID, path, nil
}

func objectKey(runID, path string) string {
	normalized := strings.TrimLeft(strings.TrimSpace(path), "/")
	return strings.Trim(strings.TrimSpace(runID), "/") + "/" + normalized
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
