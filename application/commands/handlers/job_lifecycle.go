package handlers

import (
	"context"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/domain/core/entities"
)

// jobLifecycle bundles the persistence and event plumbing shared by the
// job-running handlers
type jobLifecycle struct {
	jobRepo    ports.JobRepository
	eventStore ports.EventStore
	eventBus   ports.EventBus
	logger     *zap.Logger
}

// publishEvents persists and publishes the job's uncommitted events. Both
// channels are best-effort: a slow event pipe must not undo a finished run.
func (l jobLifecycle) publishEvents(ctx context.Context, job *entities.Job) {
	uncommitted := job.GetUncommittedEvents()
	if len(uncommitted) == 0 {
		return
	}

	if err := l.eventStore.SaveEvents(ctx, uncommitted); err != nil {
		l.logger.Error("failed to persist job events",
			zap.String("jobID", job.ID()),
			zap.Int("eventCount", len(uncommitted)),
			zap.Error(err),
		)
	}
	if err := l.eventBus.PublishBatch(ctx, uncommitted); err != nil {
		l.logger.Error("failed to publish job events",
			zap.String("jobID", job.ID()),
			zap.Int("eventCount", len(uncommitted)),
			zap.Error(err),
		)
		return
	}
	job.MarkEventsAsCommitted()
}

// fail transitions the job to FAILED and persists it. Persistence problems
// at this point are logged, not returned; the caller already has the
// primary error.
func (l jobLifecycle) fail(ctx context.Context, job *entities.Job, cause error) {
	if err := job.Fail(cause.Error()); err != nil {
		l.logger.Error("failed to mark job as failed",
			zap.String("jobID", job.ID()),
			zap.Error(err),
		)
	}
	if err := l.jobRepo.Save(ctx, job); err != nil {
		l.logger.Error("failed to save failed job",
			zap.String("jobID", job.ID()),
			zap.Error(err),
		)
	}
	l.publishEvents(ctx, job)
}
