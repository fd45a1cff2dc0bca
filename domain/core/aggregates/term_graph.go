package aggregates

import (
	"errors"

	"goslim/domain/core/entities"
	"goslim/domain/core/valueobjects"
)

// TermGraph is the aggregate root for one parsed ontology snapshot.
// It is mutable only during the parse phase; Seal freezes it, after which
// it is safe to share across concurrent readers.
type TermGraph struct {
	terms        map[valueobjects.TermID]*entities.Term
	altToPrimary map[valueobjects.TermID]valueobjects.TermID
	sources      []string
	sortedIDs    []valueobjects.TermID
	sealed       bool
}

// NewTermGraph creates an empty, unsealed term graph
func NewTermGraph() *TermGraph {
	return &TermGraph{
		terms:        make(map[valueobjects.TermID]*entities.Term),
		altToPrimary: make(map[valueobjects.TermID]valueobjects.TermID),
	}
}

// ReconstructTermGraph rebuilds a sealed graph from persisted maps.
// The alternate index is restored verbatim, including entries left behind
// by overwritten term records, so a cache round-trip is exact.
func ReconstructTermGraph(
	terms map[valueobjects.TermID]*entities.Term,
	altToPrimary map[valueobjects.TermID]valueobjects.TermID,
	sources []string,
) *TermGraph {
	g := &TermGraph{
		terms:        make(map[valueobjects.TermID]*entities.Term, len(terms)),
		altToPrimary: make(map[valueobjects.TermID]valueobjects.TermID, len(altToPrimary)),
	}
	for id, term := range terms {
		g.terms[id] = term
	}
	for alt, primary := range altToPrimary {
		g.altToPrimary[alt] = primary
	}
	g.Seal(sources)
	return g
}

// Put commits a term into the graph. A later id collision fully replaces
// the earlier record, but alternate-id entries accrete: entries created by
// the replaced record are kept unless a later commit redirects them.
func (g *TermGraph) Put(term *entities.Term) error {
	if g.sealed {
		return errors.New("term graph is sealed")
	}
	if term == nil || term.ID().IsZero() {
		return errors.New("term must have an ID")
	}

	g.terms[term.ID()] = term
	for _, alt := range term.AltIDs() {
		g.altToPrimary[alt] = term.ID()
	}
	return nil
}

// Seal freezes the graph and fixes the deterministic id ordering
func (g *TermGraph) Seal(sources []string) {
	if g.sealed {
		return
	}
	g.sources = append([]string(nil), sources...)
	g.sortedIDs = make([]valueobjects.TermID, 0, len(g.terms))
	for id := range g.terms {
		g.sortedIDs = append(g.sortedIDs, id)
	}
	valueobjects.SortTermIDs(g.sortedIDs)
	g.sealed = true
}

// IsSealed reports whether the graph has been frozen
func (g *TermGraph) IsSealed() bool {
	return g.sealed
}

// Lookup retrieves a term by its canonical id
func (g *TermGraph) Lookup(id valueobjects.TermID) (*entities.Term, bool) {
	term, ok := g.terms[id]
	return term, ok
}

// Contains reports whether the canonical id exists in the graph
func (g *TermGraph) Contains(id valueobjects.TermID) bool {
	_, ok := g.terms[id]
	return ok
}

// ResolveAlternate maps an alternate id to its primary id; ids without an
// alternate entry pass through unchanged
func (g *TermGraph) ResolveAlternate(id valueobjects.TermID) valueobjects.TermID {
	if primary, ok := g.altToPrimary[id]; ok {
		return primary
	}
	return id
}

// FindByName resolves a display name to a term id via linear scan in
// ascending id order; the lowest matching id wins
func (g *TermGraph) FindByName(name string) (valueobjects.TermID, bool) {
	for _, id := range g.sortedIDs {
		if g.terms[id].Name() == name {
			return id, true
		}
	}
	return valueobjects.TermID{}, false
}

// SortedIDs returns all canonical ids in ascending order
func (g *TermGraph) SortedIDs() []valueobjects.TermID {
	// Return a copy to maintain encapsulation
	ids := make([]valueobjects.TermID, len(g.sortedIDs))
	copy(ids, g.sortedIDs)
	return ids
}

// Alternates returns a copy of the alternate-id index
func (g *TermGraph) Alternates() map[valueobjects.TermID]valueobjects.TermID {
	alts := make(map[valueobjects.TermID]valueobjects.TermID, len(g.altToPrimary))
	for alt, primary := range g.altToPrimary {
		alts[alt] = primary
	}
	return alts
}

// Sources returns the file paths this graph was parsed from
func (g *TermGraph) Sources() []string {
	sources := make([]string, len(g.sources))
	copy(sources, g.sources)
	return sources
}

// Len returns the number of term records
func (g *TermGraph) Len() int {
	return len(g.terms)
}

// AltCount returns the number of alternate-id entries
func (g *TermGraph) AltCount() int {
	return len(g.altToPrimary)
}
