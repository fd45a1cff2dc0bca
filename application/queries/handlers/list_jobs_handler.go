package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/application/queries"
	"goslim/domain/core/entities"
)

const defaultJobPageSize = 50

// ListJobsHandler handles job listing queries
type ListJobsHandler struct {
	jobRepo ports.JobRepository
	logger  *zap.Logger
}

// NewListJobsHandler creates a new job listing handler
func NewListJobsHandler(jobRepo ports.JobRepository, logger *zap.Logger) *ListJobsHandler {
	return &ListJobsHandler{
		jobRepo: jobRepo,
		logger:  logger,
	}
}

// Handle executes the job listing query
func (h *ListJobsHandler) Handle(ctx context.Context, query queries.ListJobsQuery) (*queries.ListJobsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	criteria := ports.JobListCriteria{
		Status: entities.JobStatus(query.Status),
		Tool:   entities.JobTool(query.Tool),
		Limit:  query.Limit,
		Cursor: query.Cursor,
	}
	if criteria.Limit == 0 {
		criteria.Limit = defaultJobPageSize
	}

	jobs, nextCursor, err := h.jobRepo.List(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	views := make([]queries.JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, toJobView(job))
	}

	h.logger.Debug("jobs listed",
		zap.Int("count", len(views)),
		zap.String("statusFilter", query.Status),
	)
	return &queries.ListJobsResult{
		Jobs:       views,
		Count:      len(views),
		NextCursor: nextCursor,
	}, nil
}
