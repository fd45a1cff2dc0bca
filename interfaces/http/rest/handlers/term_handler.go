package handlers

import (
	"net/http"

	"goslim/application/queries"
	querybus "goslim/application/queries/bus"
	"goslim/pkg/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TermHandler handles term lookup HTTP requests against the loaded snapshot
type TermHandler struct {
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewTermHandler creates a new term handler
func NewTermHandler(queryBus *querybus.QueryBus, logger *zap.Logger) *TermHandler {
	return &TermHandler{
		queryBus: queryBus,
		logger:   logger,
	}
}

// GetTerm handles GET /terms/{termID}
func (h *TermHandler) GetTerm(w http.ResponseWriter, r *http.Request) {
	termID := chi.URLParam(r, "termID")
	if termID == "" {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Term ID is required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetTermQuery{TermID: termID})
	if err != nil {
		respondBusError(h.logger, w, err, "Failed to retrieve term")
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetTermMapping handles GET /terms/{termID}/mapping
func (h *TermHandler) GetTermMapping(w http.ResponseWriter, r *http.Request) {
	termID := chi.URLParam(r, "termID")
	if termID == "" {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Term ID is required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetTermMappingQuery{TermID: termID})
	if err != nil {
		respondBusError(h.logger, w, err, "Failed to resolve term mapping")
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// ListSlimTerms handles GET /slim/terms
func (h *TermHandler) ListSlimTerms(w http.ResponseWriter, r *http.Request) {
	query := queries.ListSlimTermsQuery{
		Namespace: r.URL.Query().Get("namespace"),
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		respondBusError(h.logger, w, err, "Failed to list slim terms")
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}
