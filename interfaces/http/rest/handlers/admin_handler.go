package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"goslim/application/commands"
	"goslim/application/commands/bus"
	"goslim/application/ports"
	"goslim/domain/versioning"
	"goslim/pkg/common"
	"goslim/pkg/utils"

	"go.uber.org/zap"
)

// AdminHandler handles the authenticated operational endpoints
type AdminHandler struct {
	commandBus *bus.CommandBus
	ontology   ports.OntologyProvider
	logger     *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(commandBus *bus.CommandBus, ontology ports.OntologyProvider, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		commandBus: commandBus,
		ontology:   ontology,
		logger:     logger,
	}
}

// RebuildCacheRequest is the optional JSON body for a cache rebuild
type RebuildCacheRequest struct {
	Force bool `json:"force"`
}

// RebuildCacheResponse reports the snapshot serving after the rebuild
type RebuildCacheResponse struct {
	Release   string `json:"release"`
	TermCount int    `json:"term_count"`
	Forced    bool   `json:"forced"`
	RebuiltAt string `json:"rebuilt_at"`
}

// OntologyInfoResponse summarizes the currently served snapshot
type OntologyInfoResponse struct {
	Release   string                         `json:"release"`
	TermCount int                            `json:"term_count"`
	AltCount  int                            `json:"alt_count"`
	SlimTerms int                            `json:"slim_terms"`
	SlimName  string                         `json:"slim_name"`
	Sources   []versioning.SourceFingerprint `json:"sources"`
	CreatedAt time.Time                      `json:"created_at"`
}

// RebuildCache handles POST /admin/cache/rebuild. The body is optional; an
// empty body rebuilds without forcing a reparse.
func (h *AdminHandler) RebuildCache(w http.ResponseWriter, r *http.Request) {
	var req RebuildCacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ParseError,
			"Invalid request body: "+err.Error())
		return
	}

	if err := h.commandBus.Send(r.Context(), commands.RebuildCacheCommand{Force: req.Force}); err != nil {
		respondBusError(h.logger, w, err, "Failed to rebuild ontology cache")
		return
	}

	loaded, err := h.ontology.Current(r.Context())
	if err != nil {
		respondBusError(h.logger, w, err, "Failed to load rebuilt snapshot")
		return
	}

	h.logger.Info("ontology cache rebuilt",
		zap.String("release", loaded.Version.Release),
		zap.Bool("forced", req.Force),
	)

	common.RespondJSON(w, http.StatusOK, RebuildCacheResponse{
		Release:   loaded.Version.Release,
		TermCount: loaded.Version.TermCount,
		Forced:    req.Force,
		RebuiltAt: utils.NowRFC3339(),
	})
}

// GetOntologyInfo handles GET /admin/ontology
func (h *AdminHandler) GetOntologyInfo(w http.ResponseWriter, r *http.Request) {
	loaded, err := h.ontology.Current(r.Context())
	if err != nil {
		respondBusError(h.logger, w, err, "Failed to load ontology snapshot")
		return
	}

	common.RespondJSON(w, http.StatusOK, OntologyInfoResponse{
		Release:   loaded.Version.Release,
		TermCount: loaded.Version.TermCount,
		AltCount:  loaded.Version.AltCount,
		SlimTerms: loaded.Snapshot.Slim().Len(),
		SlimName:  loaded.Snapshot.Slim().Source(),
		Sources:   loaded.Version.Sources,
		CreatedAt: loaded.Version.CreatedAt,
	})
}
