package queries

import "errors"

// ListSlimTermsQuery represents a query for the loaded slim listing
type ListSlimTermsQuery struct {
	Namespace string // optional filter: one of the three canonical namespaces
}

// Validate validates the query
func (q ListSlimTermsQuery) Validate() error {
	switch q.Namespace {
	case "", "molecular_function", "biological_process", "cellular_component":
		return nil
	default:
		return errors.New("invalid namespace filter")
	}
}

// SlimTermSummary is one slim member with its depth in the slim-restricted
// hierarchy
type SlimTermSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Depth     int    `json:"depth"`
	Obsolete  bool   `json:"obsolete,omitempty"`
}

// SlimTermsResult represents the loaded slim set
type SlimTermsResult struct {
	Source  string            `json:"source"`
	Shape   string            `json:"shape"`
	Release string            `json:"release,omitempty"`
	Count   int               `json:"count"`
	Terms   []SlimTermSummary `json:"terms"`
}
