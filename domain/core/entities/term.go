package entities

import (
	"strings"

	"goslim/domain/core/valueobjects"
	pkgerrors "goslim/pkg/errors"
)

// Term is the main entity representing one ontology classification node.
// Mutators exist only for the parse phase; once a term is committed into a
// graph it is treated as read-only.
type Term struct {
	// Private fields ensure encapsulation
	id        valueobjects.TermID
	name      string
	namespace valueobjects.Namespace
	obsolete  bool
	altIDs    []valueobjects.TermID
	parents   []valueobjects.ParentEdge
}

// NewTerm creates an empty term for the given canonical identifier
func NewTerm(id valueobjects.TermID) (*Term, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("term ID cannot be empty")
	}
	return &Term{id: id}, nil
}

// ReconstructTerm rebuilds a term from persisted data
func ReconstructTerm(
	id valueobjects.TermID,
	name string,
	namespace valueobjects.Namespace,
	obsolete bool,
	altIDs []valueobjects.TermID,
	parents []valueobjects.ParentEdge,
) (*Term, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("term ID cannot be empty")
	}

	term := &Term{
		id:        id,
		name:      name,
		namespace: namespace,
		obsolete:  obsolete,
	}
	for _, alt := range altIDs {
		term.AddAltID(alt)
	}
	for _, edge := range parents {
		term.AddParent(edge.ParentID, edge.Relation)
	}
	return term, nil
}

// ID returns the term's canonical identifier
func (t *Term) ID() valueobjects.TermID {
	return t.id
}

// Name returns the display name
func (t *Term) Name() string {
	return t.name
}

// SetName replaces the display name; repeated fields overwrite
func (t *Term) SetName(name string) {
	t.name = strings.TrimSpace(name)
}

// Namespace returns the term's namespace, canonical or otherwise
func (t *Term) Namespace() valueobjects.Namespace {
	return t.namespace
}

// SetNamespace replaces the namespace; any raw value is kept
func (t *Term) SetNamespace(ns string) {
	t.namespace = valueobjects.Namespace(strings.TrimSpace(ns))
}

// IsObsolete reports whether the term is marked obsolete
func (t *Term) IsObsolete() bool {
	return t.obsolete
}

// SetObsolete replaces the obsolete flag
func (t *Term) SetObsolete(obsolete bool) {
	t.obsolete = obsolete
}

// AltIDs returns the alternate identifiers pointing at this term
func (t *Term) AltIDs() []valueobjects.TermID {
	// Return a copy to maintain encapsulation
	alts := make([]valueobjects.TermID, len(t.altIDs))
	copy(alts, t.altIDs)
	return alts
}

// AddAltID records an alternate identifier; duplicates collapse
func (t *Term) AddAltID(alt valueobjects.TermID) {
	if alt.IsZero() {
		return
	}
	for _, existing := range t.altIDs {
		if existing.Equals(alt) {
			return
		}
	}
	t.altIDs = append(t.altIDs, alt)
}

// Parents returns the term's parent edges
func (t *Term) Parents() []valueobjects.ParentEdge {
	// Return a copy to maintain encapsulation
	parents := make([]valueobjects.ParentEdge, len(t.parents))
	copy(parents, t.parents)
	return parents
}

// AddParent records an upward edge; duplicate (parent, relation) pairs collapse
func (t *Term) AddParent(parentID valueobjects.TermID, relation valueobjects.Relation) {
	if parentID.IsZero() || !relation.IsValid() {
		return
	}
	for _, edge := range t.parents {
		if edge.ParentID.Equals(parentID) && edge.Relation == relation {
			return
		}
	}
	t.parents = append(t.parents, valueobjects.ParentEdge{ParentID: parentID, Relation: relation})
}

// ParentIDs returns parent ids whose relation passes the filter
func (t *Term) ParentIDs(allowed map[valueobjects.Relation]bool) []valueobjects.TermID {
	var ids []valueobjects.TermID
	for _, edge := range t.parents {
		if allowed[edge.Relation] {
			ids = append(ids, edge.ParentID)
		}
	}
	return ids
}

// HasParents reports whether the term declares any parent edge
func (t *Term) HasParents() bool {
	return len(t.parents) > 0
}
