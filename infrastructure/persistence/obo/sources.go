package obo

import (
	"fmt"
	"path/filepath"
)

// DiscoverOntologies lists the ontology sources in a directory: every
// *.obo file, falling back to anything named like an ontology dump when
// the directory holds none. Glob results come back sorted, which fixes
// the merge order across runs.
func DiscoverOntologies(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.obo"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan ontology directory %s: %w", dir, err)
	}
	if len(paths) == 0 {
		paths, err = filepath.Glob(filepath.Join(dir, "*ontology*"))
		if err != nil {
			return nil, fmt.Errorf("failed to scan ontology directory %s: %w", dir, err)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no ontology files found in %s", dir)
	}
	return paths, nil
}
