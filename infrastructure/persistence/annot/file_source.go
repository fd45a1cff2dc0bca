package annot

import (
	"goslim/application/ports"
)

// FileSource opens association files from the local filesystem,
// implementing ports.AssociationOpener for the job pipeline.
type FileSource struct{}

// NewFileSource creates a filesystem-backed association opener
func NewFileSource() *FileSource {
	return &FileSource{}
}

// Open implements ports.AssociationOpener
func (FileSource) Open(path string) (ports.AssociationReadCloser, error) {
	return Open(path)
}
