package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"goslim/application/commands"
	"goslim/application/ports"
	"goslim/application/sagas"
	"goslim/domain/core/entities"
)

// EnrichmentJobHandler records a term enrichment job and delegates the tool
// execution to the enrichment saga. Like the mapper orchestrator, pipeline
// failures land on the job record rather than the error return.
type EnrichmentJobHandler struct {
	jobLifecycle
	saga *sagas.EnrichmentSaga
}

// NewEnrichmentJobHandler creates a new enrichment job handler
func NewEnrichmentJobHandler(
	saga *sagas.EnrichmentSaga,
	jobRepo ports.JobRepository,
	eventStore ports.EventStore,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *EnrichmentJobHandler {
	return &EnrichmentJobHandler{
		jobLifecycle: jobLifecycle{
			jobRepo:    jobRepo,
			eventStore: eventStore,
			eventBus:   eventBus,
			logger:     logger,
		},
		saga: saga,
	}
}

// Handle orchestrates one enrichment job
func (h *EnrichmentJobHandler) Handle(ctx context.Context, cmd commands.RunEnrichmentJobCommand) (*entities.Job, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	job := entities.NewJob(cmd.JobID, entities.JobToolTermFinder, "", enrichmentJobParams(cmd))
	if err := h.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if err := job.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job: %w", err)
	}
	if err := h.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save running job: %w", err)
	}

	urls, note, err := h.saga.Execute(ctx, job, cmd)
	if err != nil {
		h.logger.Error("enrichment job failed",
			zap.String("jobID", job.ID()),
			zap.Error(err),
		)
		h.fail(ctx, job, err)
		return job, nil
	}

	for name, url := range urls {
		job.AddArtifact(name, url)
	}
	if note != "" {
		job.SetMessage(note)
	}

	if err := job.Complete(); err != nil {
		return nil, fmt.Errorf("failed to complete job: %w", err)
	}
	if err := h.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save completed job: %w", err)
	}
	h.publishEvents(ctx, job)

	h.logger.Info("enrichment job completed",
		zap.String("jobID", job.ID()),
		zap.Int("genes", len(cmd.Genes)),
		zap.Int("artifacts", len(job.Artifacts())),
	)
	return job, nil
}

// enrichmentJobParams captures the submitted options for the job record
func enrichmentJobParams(cmd commands.RunEnrichmentJobCommand) map[string]string {
	params := map[string]string{
		"genes": strconv.Itoa(len(cmd.Genes)),
	}
	if aspect := strings.ToUpper(strings.TrimSpace(cmd.Aspect)); aspect != "" {
		params["aspect"] = aspect
	}
	if len(cmd.Background) > 0 {
		params["background"] = strconv.Itoa(len(cmd.Background))
	}
	return params
}
