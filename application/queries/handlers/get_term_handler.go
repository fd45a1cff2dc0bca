package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/application/queries"
	"goslim/domain/core/valueobjects"
	pkgerrors "goslim/pkg/errors"
)

// GetTermHandler handles term lookup queries against the live snapshot
type GetTermHandler struct {
	provider ports.OntologyProvider
	logger   *zap.Logger
}

// NewGetTermHandler creates a new term lookup handler
func NewGetTermHandler(provider ports.OntologyProvider, logger *zap.Logger) *GetTermHandler {
	return &GetTermHandler{
		provider: provider,
		logger:   logger,
	}
}

// Handle executes the term lookup query. Unlike the batch pipeline, the
// interactive surface resolves alternate ids to their primary record.
func (h *GetTermHandler) Handle(ctx context.Context, query queries.GetTermQuery) (*queries.TermView, error) {
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

	view := &queries.TermView{
		ID:        term.ID().String(),
		Name:      term.Name(),
		Namespace: term.Namespace().String(),
		Obsolete:  term.IsObsolete(),
		InSlim:    loaded.Snapshot.Slim().Contains(term.ID()),
	}
	if !resolved.Equals(requested) {
		view.RequestedID = requested.String()
	}

	for _, alt := range term.AltIDs() {
		view.AltIDs = append(view.AltIDs, alt.String())
	}
	for _, edge := range term.Parents() {
		ref := queries.ParentRef{
			ID:       edge.ParentID.String(),
			Relation: edge.Relation.String(),
		}
		if parent, ok := graph.Lookup(edge.ParentID); ok {
			ref.Name = parent.Name()
		}
		view.Parents = append(view.Parents, ref)
	}

	h.logger.Debug("term retrieved",
		zap.String("id", view.ID),
		zap.Bool("inSlim", view.InSlim),
	)
	return view, nil
}
