package aggregates

import (
	"goslim/domain/core/valueobjects"
)

// OntologySnapshot bundles a sealed graph, a slim set, and the adjacency
// indexes derived from them. It is assembled once per load and shared
// read-only afterwards, so independent resolutions may run concurrently.
type OntologySnapshot struct {
	graph    *TermGraph
	slim     *SlimSet
	parents  ParentMap
	children ChildMap
}

// NewOntologySnapshot builds the adjacency indexes and freezes the snapshot
func NewOntologySnapshot(graph *TermGraph, slim *SlimSet, allowed RelationFilter) *OntologySnapshot {
	parents := BuildParentMap(graph, allowed)
	return &OntologySnapshot{
		graph:    graph,
		slim:     slim,
		parents:  parents,
		children: BuildChildMap(parents),
	}
}

// Graph returns the sealed term graph
func (s *OntologySnapshot) Graph() *TermGraph {
	return s.graph
}

// Slim returns the slim set
func (s *OntologySnapshot) Slim() *SlimSet {
	return s.slim
}

// Parents returns the filtered parent adjacency
func (s *OntologySnapshot) Parents() ParentMap {
	return s.parents
}

// Children returns the inverse adjacency
func (s *OntologySnapshot) Children() ChildMap {
	return s.children
}

// Resolve returns the nearest-slim-ancestor resolution for one term
func (s *OntologySnapshot) Resolve(id valueobjects.TermID) Resolution {
	return NearestSlimAncestors(id, s.slim, s.parents)
}

// SlimDepths returns the minimum depth of every slim id in the
// slim-restricted hierarchy
func (s *OntologySnapshot) SlimDepths() map[valueobjects.TermID]int {
	return SlimDepths(s.slim, s.parents, s.children)
}
