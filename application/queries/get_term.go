package queries

import "errors"

// GetTermQuery represents a query for one term record. The reference may be
// a canonical accession, a bare digit run, or token with an embedded
// accession; alternate ids resolve to their primary record.
type GetTermQuery struct {
	TermID string
}

// Validate validates the GetTermQuery
func (q GetTermQuery) Validate() error {
	if q.TermID == "" {
		return errors.New("term ID is required")
	}
	return nil
}

// ParentRef is one upward edge in a term view
type ParentRef struct {
	ID       string `json:"id"`
	Relation string `json:"relation"`
	Name     string `json:"name,omitempty"`
}

// TermView represents the result of getting a term
type TermView struct {
	ID          string      `json:"id"`
	RequestedID string      `json:"requestedId,omitempty"`
	Name        string      `json:"name"`
	Namespace   string      `json:"namespace"`
	Obsolete    bool        `json:"obsolete"`
	InSlim      bool        `json:"inSlim"`
	AltIDs      []string    `json:"altIds,omitempty"`
	Parents     []ParentRef `json:"parents,omitempty"`
}
