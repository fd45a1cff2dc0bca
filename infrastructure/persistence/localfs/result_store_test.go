package localfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResultStore_StoreWritesFileAndReturnsPath(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	store := NewResultStore(dir, zap.NewNop())

	// Act
	url, err := store.Store(
		context.Background(),
		"0f343b09/counts.txt",
		"text/plain; charset=utf-8",
		strings.NewReader("GO:0008150 biological_process 42\n"),
	)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/results/0f343b09/counts.txt", url)

	body, err := os.ReadFile(filepath.Join(dir, "0f343b09", "counts.txt"))
	require.NoError(t, err)
	assert.Equal(t, "GO:0008150 biological_process 42\n", string(body))
}

func TestResultStore_ConfinesKeysToDirectory(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	store := NewResultStore(dir, zap.NewNop())

	// Act
	url, err := store.Store(context.Background(), "../../escape.txt", "text/plain", strings.NewReader("x"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/results/escape.txt", url)

	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err, "artifact should stay inside the results directory")
}

func TestResultStore_OverwriteIsAtomicReplace(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	store := NewResultStore(dir, zap.NewNop())

	_, err := store.Store(context.Background(), "ab/mapped.tab", "text/plain", strings.NewReader("first"))
	require.NoError(t, err)

	// Act
	_, err = store.Store(context.Background(), "ab/mapped.tab", "text/plain", strings.NewReader("second"))

	// Assert
	require.NoError(t, err)
	body, err := os.ReadFile(filepath.Join(dir, "ab", "mapped.tab"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(body))

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Join(dir, "ab"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
