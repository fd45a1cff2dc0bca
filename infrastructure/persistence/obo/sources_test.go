package obo

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverOntologies_PrefersOboFiles(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	writeFile(t, dir, "process.obo", "")
	writeFile(t, dir, "function.obo", "")
	writeFile(t, dir, "gene_ontology.txt", "")
	writeFile(t, dir, "README", "")

	// Act
	paths, err := DiscoverOntologies(dir)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "function.obo"),
		filepath.Join(dir, "process.obo"),
	}, paths)
}

func TestDiscoverOntologies_FallsBackToOntologyDumps(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	writeFile(t, dir, "gene_ontology.txt", "")
	writeFile(t, dir, "notes.md", "")

	// Act
	paths, err := DiscoverOntologies(dir)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "gene_ontology.txt")}, paths)
}

func TestDiscoverOntologies_EmptyDirectoryFails(t *testing.T) {
	// Act
	paths, err := DiscoverOntologies(t.TempDir())

	// Assert
	assert.Nil(t, paths)
	assert.ErrorContains(t, err, "no ontology files found")
}
