package ports

import (
	"context"
	"io"

	"goslim/domain/core/aggregates"
	"goslim/domain/versioning"
)

// Column indices for the two supported association row shapes, 0-based
// positions among tab-separated columns.
const (
	// Primary (tabular annotation) shape.
	ColProduct   = 1
	ColQualifier = 3
	ColTermID    = 4
	ColAspect    = 8

	// Alternate (feature table) shape.
	AltColType    = 2
	AltColProduct = 8
)

// AssociationScanner iterates the non-comment rows of an association
// source. Implementations decide transport and compression.
type AssociationScanner interface {
	// Scan advances to the next non-comment row
	Scan() bool

	// Columns returns the tab-separated columns of the current row
	Columns() []string

	// RowCount returns how many non-comment rows have been consumed
	RowCount() int

	// Err returns the first error encountered during scanning
	Err() error
}

// AssociationReadCloser is a scanner that owns its underlying file handles
type AssociationReadCloser interface {
	AssociationScanner
	io.Closer
}

// AssociationOpener opens association sources by path
type AssociationOpener interface {
	Open(path string) (AssociationReadCloser, error)
}

// LoadedOntology pairs an immutable snapshot with its release identity
type LoadedOntology struct {
	Snapshot *aggregates.OntologySnapshot
	Version  *versioning.OntologyVersion
}

// OntologyProvider yields the currently loaded ontology. Implementations
// may swap the snapshot atomically on reload; callers must not retain the
// result across requests.
type OntologyProvider interface {
	Current(ctx context.Context) (*LoadedOntology, error)
}

// OntologyReloader reparses the ontology sources and swaps the served
// snapshot. When force is set any persisted cache is bypassed.
type OntologyReloader interface {
	Reload(ctx context.Context, force bool) (*LoadedOntology, error)
}

// ToolSpec describes one configured external tool
type ToolSpec struct {
	Name             string
	Command          string
	Args             []string
	TimeoutSeconds   int
	ArtifactSuffixes []string
	NoResultsMarker  string
}

// ToolRegistry resolves configured external tools by name
type ToolRegistry interface {
	// Lookup returns the named tool spec
	Lookup(name string) (ToolSpec, bool)
}

// ToolRunner executes an external tool in a scratch directory
type ToolRunner interface {
	// Run executes the tool with its configured arguments plus extra
	// arguments, returning combined output
	Run(ctx context.Context, spec ToolSpec, workdir string, extraArgs []string) ([]byte, error)
}
