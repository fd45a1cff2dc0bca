package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/application/queries"
	"goslim/domain/core/aggregates"
	"goslim/domain/core/valueobjects"
	pkgerrors "goslim/pkg/errors"
)

// GetTermMappingHandler handles nearest-slim-ancestor queries
type GetTermMappingHandler struct {
	provider ports.OntologyProvider
	logger   *zap.Logger
}

// NewGetTermMappingHandler creates a new term mapping handler
func NewGetTermMappingHandler(provider ports.OntologyProvider, logger *zap.Logger) *GetTermMappingHandler {
	return &GetTermMappingHandler{
		provider: provider,
		logger:   logger,
	}
}

// Handle executes the term mapping query. An empty resolution is a normal
// outcome and returns empty sets, not an error.
func (h *GetTermMappingHandler) Handle(ctx context.Context, query queries.GetTermMappingQuery) (*queries.TermMappingResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	loaded, err := h.provider.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ontology snapshot: %w", err)
	}
	graph := loaded.Snapshot.Graph()

	requested, ok := valueobjects.NormalizeTermToken(query.TermID)
	if !ok {
		return nil, pkgerrors.NewDomainError(
			pkgerrors.DomainValidationError,
			"INVALID_TERM_ID",
			"Term reference cannot be normalized to a canonical id",
		).WithDetail("term_id", query.TermID)
	}

	resolved := graph.ResolveAlternate(requested)
	term, found := graph.Lookup(resolved)
	if !found {
		return nil, pkgerrors.NewDomainError(
			pkgerrors.DomainNotFoundError,
			"TERM_NOT_FOUND",
			"The requested term does not exist in the ontology",
		).WithDetail("term_id", resolved.String())
	}
	if term.IsObsolete() {
		return nil, pkgerrors.NewDomainError(
			pkgerrors.DomainBusinessRuleError,
			"TERM_OBSOLETE",
			"The term is marked obsolete and cannot be a mapping target",
		).WithDetail("term_id", term.ID().String())
	}

	res := loaded.Snapshot.Resolve(term.ID())

	result := &queries.TermMappingResult{
		ID:     term.ID().String(),
		Direct: toMappedTerms(graph, res.DirectSorted()),
		All:    toMappedTerms(graph, res.AllSorted()),
	}
	if loaded.Version != nil {
		result.Release = loaded.Version.Release
	}

	h.logger.Debug("term mapping resolved",
		zap.String("id", result.ID),
		zap.Int("direct", len(result.Direct)),
		zap.Int("all", len(result.All)),
	)
	return result, nil
}

// toMappedTerms attaches display names to resolved ids; ids without a graph
// record keep an empty name
func toMappedTerms(graph *aggregates.TermGraph, ids []valueobjects.TermID) []queries.MappedTerm {
	mapped := make([]queries.MappedTerm, 0, len(ids))
	for _, id := range ids {
		mt := queries.MappedTerm{ID: id.String()}
		if term, ok := graph.Lookup(id); ok {
			mt.Name = term.Name()
		}
		mapped = append(mapped, mt)
	}
	return mapped
}
