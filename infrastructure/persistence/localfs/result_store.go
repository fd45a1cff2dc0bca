// Package localfs stores job result artifacts on the local filesystem for
// runs without an S3 bucket. The REST server serves the directory under
// BasePath, so returned URLs resolve against the same host.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

// BasePath is the URL prefix the HTTP server mounts the results directory on
const BasePath = "/results"

// ResultStore implements ports.ResultStore on a local directory
type ResultStore struct {
	dir    string
	logger *zap.Logger
}

// NewResultStore creates a result store rooted at dir
func NewResultStore(dir string, logger *zap.Logger) *ResultStore {
	return &ResultStore{
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the directory artifacts are written to
func (s *ResultStore) Dir() string {
	return s.dir
}

// Store writes one artifact under the given key and returns its URL path.
// The write lands in a temporary file first and is renamed into place, so
// a concurrent reader never sees a half-written artifact.
func (s *ResultStore) Store(_ context.Context, key string, _ string, body io.Reader) (string, error) {
	// Confine the key to the results directory
	rel := filepath.FromSlash(path.Clean("/" + key))[1:]
	dest := filepath.Join(s.dir, rel)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".artifact-*")
	if err != nil {
		return "", fmt.Errorf("failed to create artifact file: %w", err)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write artifact %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write artifact %s: %w", rel, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store artifact %s: %w", rel, err)
	}

	s.logger.Debug("artifact stored",
		zap.String("path", dest),
	)
	return path.Join(BasePath, filepath.ToSlash(rel)), nil
}
