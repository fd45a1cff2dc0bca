package handlers

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/application/queries"
)

// ListSlimTermsHandler handles slim listing queries
type ListSlimTermsHandler struct {
	provider ports.OntologyProvider
	logger   *zap.Logger
}

// NewListSlimTermsHandler creates a new slim listing handler
func NewListSlimTermsHandler(provider ports.OntologyProvider, logger *zap.Logger) *ListSlimTermsHandler {
	return &ListSlimTermsHandler{
		provider: provider,
		logger:   logger,
	}
}

// Handle executes the slim listing query, ordered by depth in the
// slim-restricted hierarchy and then by id
func (h *ListSlimTermsHandler) Handle(ctx context.Context, query queries.ListSlimTermsQuery) (*queries.SlimTermsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	loaded, err := h.provider.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ontology snapshot: %w", err)
	}
	snapshot := loaded.Snapshot
	graph := snapshot.Graph()
	slim := snapshot.Slim()

	depths := snapshot.SlimDepths()

	terms := make([]queries.SlimTermSummary, 0, slim.Len())
	for _, id := range slim.SortedIDs() {
		term, ok := graph.Lookup(id)
		if !ok {
			continue
		}
		if query.Namespace != "" && term.Namespace().String() != query.Namespace {
			continue
		}
		terms = append(terms, queries.SlimTermSummary{
			ID:        id.String(),
			Name:      term.Name(),
			Namespace: term.Namespace().String(),
			Depth:     depths[id],
			Obsolete:  term.IsObsolete(),
		})
	}
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Depth != terms[j].Depth {
			return terms[i].Depth < terms[j].Depth
		}
		return terms[i].ID < terms[j].ID
	})

	result := &queries.SlimTermsResult{
		Source: slim.Source(),
		Shape:  string(slim.Shape()),
		Count:  len(terms),
		Terms:  terms,
	}
	if loaded.Version != nil {
		result.Release = loaded.Version.Release
	}

	h.logger.Debug("slim terms listed",
		zap.Int("count", result.Count),
		zap.String("namespace", query.Namespace),
	)
	return result, nil
}
