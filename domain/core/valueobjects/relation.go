package valueobjects

// Relation is the closed set of edge kinds that contribute parent edges.
// Any other relationship verb found in a source is ignored at parse time.
type Relation string

const (
	RelationIsA    Relation = "is_a"
	RelationPartOf Relation = "part_of"
)

// ParseRelation maps a relationship tag onto the closed relation set
func ParseRelation(tag string) (Relation, bool) {
	switch tag {
	case string(RelationIsA):
		return RelationIsA, true
	case string(RelationPartOf):
		return RelationPartOf, true
	default:
		return "", false
	}
}

// String returns the relation tag
func (r Relation) String() string {
	return string(r)
}

// IsValid reports whether the relation belongs to the closed set
func (r Relation) IsValid() bool {
	switch r {
	case RelationIsA, RelationPartOf:
		return true
	default:
		return false
	}
}

// AllRelations returns the closed relation set
func AllRelations() []Relation {
	return []Relation{RelationIsA, RelationPartOf}
}

// ParentEdge is an upward edge from a term to one of its parents
type ParentEdge struct {
	ParentID TermID
	Relation Relation
}
