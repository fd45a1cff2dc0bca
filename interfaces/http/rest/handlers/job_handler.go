package handlers

import (
	"errors"
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
	"goslim/pkg/common"
	"goslim/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// multipartMemoryLimit caps how much of an upload ParseMultipartForm holds
// in memory before spilling to disk.
const multipartMemoryLimit = 32 << 20

// JobHandler handles job submission and inspection HTTP requests
type JobHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	uploadDir  string
	maxUpload  int64
	logger     *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	uploadDir string,
	maxUpload int64,
	logger *zap.Logger,
) *JobHandler {
	return &JobHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		uploadDir:  uploadDir,
		maxUpload:  maxUpload,
		logger:     logger,
	}
}

// SubmitMapperJobRequest is the JSON body for a mapper job that reads an
// association file already present on the server
type SubmitMapperJobRequest struct {
	AssociationPath string `json:"association_path" validate:"required"`
	Mode            string `json:"mode,omitempty" validate:"omitempty,oneof=map count"`
	Aspect          string `json:"aspect,omitempty" validate:"omitempty,oneof=P F C p f c"`
	FeatureTable    bool   `json:"feature_table,omitempty"`
	Indent          bool   `json:"indent,omitempty"`
}

// SubmitEnrichmentJobRequest is the JSON body for an enrichment job
type SubmitEnrichmentJobRequest struct {
	Genes      []string `json:"genes" validate:"required,min=1,max=5000,dive,min=1"`
	Aspect     string   `json:"aspect,omitempty" validate:"omitempty,oneof=P F C p f c"`
	Background []string `json:"background,omitempty"`
}

// SubmitMapperJob handles POST /mapper/jobs. Multipart submissions carry the
// annotation file in the "association" field; JSON submissions name a file
// already on the server.
func (h *JobHandler) SubmitMapperJob(w http.ResponseWriter, r *http.Request) {
	cmd := commands.RunMapperJobCommand{
		JobID: uuid.New().String(),
		Mode:  commands.MapperModeMap,
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
		staged, err := h.stageAssociationUpload(r, &cmd)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				common.RespondError(w, http.StatusRequestEntityTooLarge,
					common.StandardErrorCodes.ValidationError, "Uploaded file exceeds the size limit")
				return
			}
			common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, err.Error())
			return
		}
		defer os.Remove(staged)
	} else {
		var req SubmitMapperJobRequest
		if err := common.ParseJSONBody(r, &req, h.maxUpload); err != nil {
			common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ParseError,
				"Invalid request body: "+err.Error())
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
			return
		}
		cmd.AssociationPath = req.AssociationPath
		cmd.AssociationName = filepath.Base(req.AssociationPath)
		if req.Mode != "" {
			cmd.Mode = req.Mode
		}
		cmd.Aspect = req.Aspect
		cmd.FeatureTable = req.FeatureTable
		cmd.Indent = req.Indent
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		respondBusError(h.logger, w, err, "Failed to run mapper job")
		return
	}

	h.respondJob(w, r, cmd.JobID, http.StatusCreated)
}

// SubmitEnrichmentJob handles POST /enrichment/jobs
func (h *JobHandler) SubmitEnrichmentJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitEnrichmentJobRequest
	if err := common.ParseJSONBody(r, &req, h.maxUpload); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ParseError,
			"Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	cmd := commands.RunEnrichmentJobCommand{
		JobID:      uuid.New().String(),
		Genes:      req.Genes,
		Aspect:     req.Aspect,
		Background: req.Background,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		respondBusError(h.logger, w, err, "Failed to run enrichment job")
		return
	}

	h.respondJob(w, r, cmd.JobID, http.StatusCreated)
}

// GetJob handles GET /jobs/{jobID}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Job ID is required")
		return
	}
	if _, err := uuid.Parse(jobID); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid job ID format")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetJobQuery{JobID: jobID})
	if err != nil {
		respondBusError(h.logger, w, err, "Failed to retrieve job")
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// ListJobs handles GET /jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	params, err := common.ExtractListParams(r)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid limit parameter")
		return
	}

	query := queries.ListJobsQuery{
		Status: r.URL.Query().Get("status"),
		Tool:   r.URL.Query().Get("tool"),
		Limit:  params.Limit,
		Cursor: params.Cursor,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		respondBusError(h.logger, w, err, "Failed to list jobs")
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetJobEvents handles GET /jobs/{jobID}/events
func (h *JobHandler) GetJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Job ID is required")
		return
	}
	if _, err := uuid.Parse(jobID); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid job ID format")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetJobEventsQuery{JobID: jobID})
	if err != nil {
		respondBusError(h.logger, w, err, "Failed to retrieve job events")
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// stageAssociationUpload copies the uploaded annotation file into the
// staging directory and fills the command from the form fields. The mapper
// reads the file synchronously, so the caller removes it once the command
// has run.
func (h *JobHandler) stageAssociationUpload(r *http.Request, cmd *commands.RunMapperJobCommand) (string, error) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return "", fmt.Errorf("failed to parse multipart form: %w", err)
	}

	file, header, err := r.FormFile("association")
	if err != nil {
		return "", fmt.Errorf("association file is required: %w", err)
	}
	defer file.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "association"
	}

	staged := filepath.Join(h.uploadDir, cmd.JobID+"-"+name)
	dst, err := os.Create(staged)
	if err != nil {
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(staged)
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}

	cmd.AssociationPath = staged
	cmd.AssociationName = name
	if mode := r.FormValue("mode"); mode != "" {
		cmd.Mode = mode
	}
	cmd.Aspect = r.FormValue("aspect")
	cmd.FeatureTable = parseFormBool(r.FormValue("gff"))
	cmd.Indent = parseFormBool(r.FormValue("indent"))

	return staged, nil
}

// respondJob answers a submission with the stored job view so clients see
// final status and artifacts without a second round trip.
func (h *JobHandler) respondJob(w http.ResponseWriter, r *http.Request, jobID string, status int) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetJobQuery{JobID: jobID})
	if err != nil {
		respondBusError(h.logger, w, err, "Failed to load job")
		return
	}
	common.RespondJSON(w, status, result)
}

func parseFormBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
