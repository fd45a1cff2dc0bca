package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/application/queries"
	"goslim/domain/core/entities"
)

// GetJobHandler handles single job record queries
type GetJobHandler struct {
	jobRepo ports.JobRepository
	logger  *zap.Logger
}

// NewGetJobHandler creates a new job lookup handler
func NewGetJobHandler(jobRepo ports.JobRepository, logger *zap.Logger) *GetJobHandler {
	return &GetJobHandler{
		jobRepo: jobRepo,
		logger:  logger,
	}
}

// Handle executes the job lookup query
func (h *GetJobHandler) Handle(ctx context.Context, query queries.GetJobQuery) (*queries.JobView, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	job, err := h.jobRepo.GetByID(ctx, query.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	view := toJobView(job)

	h.logger.Debug("job retrieved",
		zap.String("jobID", view.ID),
		zap.String("status", view.Status),
	)
	return &view, nil
}

// toJobView converts a job entity into its external representation
func toJobView(job *entities.Job) queries.JobView {
	view := queries.JobView{
		ID:        job.ID(),
		Tool:      string(job.Tool()),
		Mode:      job.Mode(),
		Status:    string(job.Status()),
		Message:   job.Message(),
		Artifacts: job.Artifacts(),
		CreatedAt: job.CreatedAt().Format(time.RFC3339),
		Version:   job.Version(),
	}
	if started := job.StartedAt(); started != nil {
		view.StartedAt = started.Format(time.RFC3339)
	}
	if finished := job.FinishedAt(); finished != nil {
		view.FinishedAt = finished.Format(time.RFC3339)
	}
	return view
}
