// Package tools loads the external tool registry and runs configured tools
// in scratch directories. Tools such as the term enrichment finder are
// separate programs; the registry file says how to invoke them and how to
// recognize their output.
package tools

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"goslim/application/ports"
)

// toolConfig mirrors one entry of the registry file
type toolConfig struct {
	Name             string   `yaml:"name"`
	Command          string   `yaml:"command"`
	Args             []string `yaml:"args"`
	TimeoutSeconds   int      `yaml:"timeout_seconds"`
	ArtifactSuffixes []string `yaml:"artifact_suffixes"`
	NoResultsMarker  string   `yaml:"no_results_marker"`
}

type registryFile struct {
	Tools []toolConfig `yaml:"tools"`
}

// Registry implements ports.ToolRegistry from a YAML file
type Registry struct {
	specs map[string]ports.ToolSpec
}

// LoadRegistry reads tool specs from the YAML file at path. A missing file
// is not an error: the instance simply has no external tools configured,
// and enrichment jobs are refused at submission.
func LoadRegistry(path string, logger *zap.Logger) (*Registry, error) {
	specs := make(map[string]ports.ToolSpec)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Info("no tool registry file, external tools disabled",
			zap.String("path", path),
		)
		return &Registry{specs: specs}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tool registry %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tool registry %s: %w", path, err)
	}

	for _, tool := range file.Tools {
		if tool.Name == "" || tool.Command == "" {
			return nil, fmt.Errorf("tool registry %s: every tool needs a name and a command", path)
		}
		if _, dup := specs[tool.Name]; dup {
			return nil, fmt.Errorf("tool registry %s: duplicate tool %s", path, tool.Name)
		}
		specs[tool.Name] = ports.ToolSpec{
			Name:             tool.Name,
			Command:          tool.Command,
			Args:             tool.Args,
			TimeoutSeconds:   tool.TimeoutSeconds,
			ArtifactSuffixes: tool.ArtifactSuffixes,
			NoResultsMarker:  tool.NoResultsMarker,
		}
	}

	logger.Info("tool registry loaded",
		zap.String("path", path),
		zap.Int("tools", len(specs)),
	)
	return &Registry{specs: specs}, nil
}

// Lookup returns the named tool spec
func (r *Registry) Lookup(name string) (ports.ToolSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Names lists the configured tools in stable order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
