package v1

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"goslim/application/commands"
	"goslim/application/commands/bus"
	"goslim/application/queries"
	querybus "goslim/application/queries/bus"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// multipartMemoryLimit caps how much of an upload ParseMultipartForm holds
// in memory before spilling to disk.
const multipartMemoryLimit = 32 << 20

// legacyErrorKey matches the original response key, leading space included
const legacyErrorKey = " ERROR"

// LegacyHandler serves the CGI-era endpoints with their original parameter
// names and bare JSON response shapes. Responses skip the v2 envelope.
type LegacyHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	uploadDir  string
	maxUpload  int64
	logger     *zap.Logger
}

// NewLegacyHandler creates a new legacy handler
func NewLegacyHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	uploadDir string,
	maxUpload int64,
	logger *zap.Logger,
) *LegacyHandler {
	return &LegacyHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		uploadDir:  uploadDir,
		maxUpload:  maxUpload,
		logger:     logger,
	}
}

// GoSlimMapper handles /goslimmapper. The association file arrives in the
// "file" form field; "mode" selects map or count output.
func (h *LegacyHandler) GoSlimMapper(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	cmd := commands.RunMapperJobCommand{
		JobID: uuid.New().String(),
		Mode:  commands.MapperModeMap,
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.respond(w, http.StatusOK, map[string]string{legacyErrorKey: "NO ASSOCIATION FILE PASSED IN"})
		return
	}
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.respond(w, http.StatusBadRequest, map[string]string{legacyErrorKey: "MALFORMED FORM DATA"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respond(w, http.StatusOK, map[string]string{legacyErrorKey: "NO ASSOCIATION FILE PASSED IN"})
		return
	}
	defer file.Close()

	staged, err := h.stageUpload(header.Filename, file, cmd.JobID)
	if err != nil {
		h.logger.Error("failed to stage legacy upload", zap.Error(err))
		h.respond(w, http.StatusInternalServerError, map[string]string{legacyErrorKey: "UPLOAD FAILED"})
		return
	}
	defer os.Remove(staged)

	cmd.AssociationPath = staged
	cmd.AssociationName = filepath.Base(header.Filename)
	if mode := formParam(r, "mode"); mode != "" {
		cmd.Mode = mode
	}
	cmd.Aspect = formParam(r, "aspect")
	cmd.FeatureTable = formParam(r, "gff") != ""
	cmd.Indent = formParam(r, "indent") != ""

	view, ok := h.runJob(w, r, cmd.JobID, cmd)
	if !ok {
		return
	}
	if len(view.Artifacts) == 0 {
		h.respond(w, http.StatusOK, map[string]string{"output": view.Message})
		return
	}
	h.respond(w, http.StatusOK, mapperURLMap(view.Artifacts))
}

// TermFinder handles /termfinder. The original front used it for process
// enrichment, so the aspect defaults to P.
func (h *LegacyHandler) TermFinder(w http.ResponseWriter, r *http.Request) {
	h.enrichment(w, r, "P")
}

// GoTermFinder handles /gotermfinder with the original F aspect default
func (h *LegacyHandler) GoTermFinder(w http.ResponseWriter, r *http.Request) {
	h.enrichment(w, r, "F")
}

func (h *LegacyHandler) enrichment(w http.ResponseWriter, r *http.Request, defaultAspect string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	genes := formParam(r, "genes")
	if genes == "" {
		h.respond(w, http.StatusOK, map[string]string{legacyErrorKey: "NO GENE NAME PASSED IN"})
		return
	}

	aspect := formParam(r, "aspect")
	if aspect == "" {
		aspect = defaultAspect
	}

	if evidence := formParam(r, "evidence"); evidence != "" {
		h.logger.Warn("evidence filtering is not supported, ignoring",
			zap.String("evidence", evidence))
	}
	// pvalue and FDR are accepted for compatibility; the configured tool
	// applies its own thresholds.

	cmd := commands.RunEnrichmentJobCommand{
		JobID:  uuid.New().String(),
		Genes:  splitGeneList(genes),
		Aspect: aspect,
	}
	if background := formParam(r, "genes4bg"); background != "" {
		cmd.Background = splitGeneList(background)
	}

	view, ok := h.runJob(w, r, cmd.JobID, cmd)
	if !ok {
		return
	}
	if len(view.Artifacts) == 0 {
		h.respond(w, http.StatusOK, map[string]string{"output": view.Message})
		return
	}
	h.respond(w, http.StatusOK, enrichmentURLMap(view.Artifacts))
}

// runJob dispatches the command and loads the finished job record
func (h *LegacyHandler) runJob(w http.ResponseWriter, r *http.Request, jobID string, cmd bus.Command) (*queries.JobView, bool) {
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		if strings.Contains(err.Error(), "validation failed") {
			h.respond(w, http.StatusOK, map[string]string{legacyErrorKey: err.Error()})
			return nil, false
		}
		h.logger.Error("legacy job failed", zap.String("jobID", jobID), zap.Error(err))
		h.respond(w, http.StatusInternalServerError, map[string]string{legacyErrorKey: "INTERNAL ERROR"})
		return nil, false
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetJobQuery{JobID: jobID})
	if err != nil {
		h.logger.Error("failed to load legacy job", zap.String("jobID", jobID), zap.Error(err))
		h.respond(w, http.StatusInternalServerError, map[string]string{legacyErrorKey: "INTERNAL ERROR"})
		return nil, false
	}
	view, ok := result.(*queries.JobView)
	if !ok {
		h.respond(w, http.StatusInternalServerError, map[string]string{legacyErrorKey: "INTERNAL ERROR"})
		return nil, false
	}
	return view, true
}

// stageUpload copies the uploaded association into the staging directory.
// The mapper reads it synchronously, so the caller removes it afterwards.
func (h *LegacyHandler) stageUpload(filename string, src io.Reader, jobID string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := filepath.Base(filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "association"
	}

	staged := filepath.Join(h.uploadDir, jobID+"-"+name)
	dst, err := os.Create(staged)
	if err != nil {
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(staged)
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}
	return staged, nil
}

func (h *LegacyHandler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// formParam reads a parameter the way the original front did: the POST form
// wins, the query string is the fallback.
func formParam(r *http.Request, name string) string {
	if v := r.PostFormValue(name); v != "" {
		return v
	}
	return r.URL.Query().Get(name)
}

// splitGeneList converts the legacy pipe-separated list, uppercasing and
// stripping SGD: prefixes as the original did
func splitGeneList(raw string) []string {
	raw = strings.ToUpper(raw)
	raw = strings.ReplaceAll(raw, "SGD:", "")
	parts := strings.Split(raw, "|")
	genes := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			genes = append(genes, trimmed)
		}
	}
	return genes
}

// enrichmentURLMap reshapes stored artifact names into the page keys the
// original JSON responses used
func enrichmentURLMap(artifacts map[string]string) map[string]string {
	pages := make(map[string]string, len(artifacts))
	for name, url := range artifacts {
		pages[enrichmentPageKey(name)] = url
	}
	return pages
}

func enrichmentPageKey(name string) string {
	switch {
	case strings.HasSuffix(name, "_tab.txt"):
		return "tab_page"
	case strings.HasSuffix(name, "_terms.txt"):
		return "term_page"
	case strings.HasSuffix(name, "_Image.html"):
		return "image_page"
	case strings.HasSuffix(name, ".html"):
		return "table_page"
	case strings.HasSuffix(name, ".png"):
		return "png_page"
	case strings.HasSuffix(name, ".svg"):
		return "svg_page"
	case strings.HasSuffix(name, ".ps"):
		return "ps_page"
	case strings.HasSuffix(name, ".txt"):
		return "input_page"
	}
	return name
}

// mapperURLMap names the mapper outputs by their format
func mapperURLMap(artifacts map[string]string) map[string]string {
	pages := make(map[string]string, len(artifacts))
	for name, url := range artifacts {
		switch {
		case strings.HasSuffix(name, ".gff"):
			pages["feature_page"] = url
		case strings.HasSuffix(name, ".gaf"):
			pages["mapping_page"] = url
		case strings.HasSuffix(name, ".tsv"):
			pages["count_page"] = url
		default:
			pages[name] = url
		}
	}
	return pages
}
