package aggregates

import (
	"goslim/domain/core/valueobjects"
)

// SlimShape records which on-disk form a slim set was loaded from
type SlimShape string

const (
	SlimShapeOntology SlimShape = "ontology"
	SlimShapeList     SlimShape = "list"
)

// SlimSet is the curated subset of graph ids used for summarization.
// Every member is guaranteed present and non-obsolete in the graph it was
// resolved against. Read-only once loading completes.
type SlimSet struct {
	ids    map[valueobjects.TermID]bool
	source string
	shape  SlimShape
}

// NewSlimSet creates an empty slim set tagged with its origin
func NewSlimSet(source string, shape SlimShape) *SlimSet {
	return &SlimSet{
		ids:    make(map[valueobjects.TermID]bool),
		source: source,
		shape:  shape,
	}
}

// Add inserts a canonical id into the set
func (s *SlimSet) Add(id valueobjects.TermID) {
	if id.IsZero() {
		return
	}
	s.ids[id] = true
}

// Contains reports membership
func (s *SlimSet) Contains(id valueobjects.TermID) bool {
	return s.ids[id]
}

// Len returns the number of slim ids
func (s *SlimSet) Len() int {
	return len(s.ids)
}

// IsEmpty reports whether the set has no members
func (s *SlimSet) IsEmpty() bool {
	return len(s.ids) == 0
}

// SortedIDs returns the members in ascending order
func (s *SlimSet) SortedIDs() []valueobjects.TermID {
	ids := make([]valueobjects.TermID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	valueobjects.SortTermIDs(ids)
	return ids
}

// Source returns the path the set was loaded from
func (s *SlimSet) Source() string {
	return s.source
}

// Shape returns the detected on-disk form
func (s *SlimSet) Shape() SlimShape {
	return s.shape
}
