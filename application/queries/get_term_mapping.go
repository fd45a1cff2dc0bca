package queries

import "errors"

// GetTermMappingQuery represents a query for the nearest slim ancestors of
// one term
type GetTermMappingQuery struct {
	TermID string
}

// Validate validates the GetTermMappingQuery
func (q GetTermMappingQuery) Validate() error {
	if q.TermID == "" {
		return errors.New("term ID is required")
	}
	return nil
}

// MappedTerm pairs a slim id with its display name
type MappedTerm struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TermMappingResult represents the direct and full slim ancestor sets of a
// term, both in ascending id order
type TermMappingResult struct {
	ID      string       `json:"id"`
	Release string       `json:"release,omitempty"`
	Direct  []MappedTerm `json:"direct"`
	All     []MappedTerm `json:"all"`
}
