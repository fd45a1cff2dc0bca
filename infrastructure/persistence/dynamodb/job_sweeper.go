package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/domain/core/entities"
	pkgerrors "goslim/pkg/errors"
)

const (
	sweepInterval  = time.Minute
	sweepBatchSize = 50

	// A pending or running job with no progress for this long is abandoned:
	// its worker died between transitions and will never finish it
	abandonedAfter = 15 * time.Minute
)

// JobSweeper fails jobs stranded in a non-terminal state. A worker can die
// between starting a job and completing it; without the sweeper, clients
// polling that job would see it running forever. Each tick lists pending and
// running jobs and fails the ones older than the abandonment deadline.
type JobSweeper struct {
	jobs       ports.JobRepository
	eventStore ports.EventStore
	publisher  ports.EventPublisher
	logger     *zap.Logger

	interval time.Duration
	deadline time.Duration

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewJobSweeper creates a sweeper over the given job repository
func NewJobSweeper(
	jobs ports.JobRepository,
	eventStore ports.EventStore,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *JobSweeper {
	return &JobSweeper{
		jobs:        jobs,
		eventStore:  eventStore,
		publisher:   publisher,
		logger:      logger,
		interval:    sweepInterval,
		deadline:    abandonedAfter,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins sweeping in the background
func (s *JobSweeper) Start(ctx context.Context) {
	s.logger.Info("starting job sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("deadline", s.deadline),
	)

	go s.sweepLoop(ctx)
}

// Stop stops the sweeper and waits for the current sweep to finish
func (s *JobSweeper) Stop() {
	close(s.stopChan)
	<-s.stoppedChan
	s.logger.Info("job sweeper stopped")
}

func (s *JobSweeper) sweepLoop(ctx context.Context) {
	defer close(s.stoppedChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("job sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce walks all pending and running jobs, fails the abandoned ones and
// returns how many were failed. Scheduled invocations call this directly
// instead of running the background loop.
func (s *JobSweeper) SweepOnce(ctx context.Context) (int, error) {
	now := time.Now()
	swept := 0

	for _, status := range []entities.JobStatus{entities.JobStatusPending, entities.JobStatusRunning} {
		cursor := ""
		for {
			jobs, next, err := s.jobs.List(ctx, ports.JobListCriteria{
				Status: status,
				Limit:  sweepBatchSize,
				Cursor: cursor,
			})
			if err != nil {
				return swept, fmt.Errorf("failed to list %s jobs: %w", status, err)
			}

			for _, job := range jobs {
				if !s.isAbandoned(job, now) {
					continue
				}
				if err := s.failAbandoned(ctx, job); err != nil {
					s.logger.Warn("failed to sweep abandoned job",
						zap.String("jobID", job.ID()),
						zap.Error(err),
					)
					continue
				}
				swept++
			}

			if next == "" {
				break
			}
			cursor = next
		}
	}

	if swept > 0 {
		s.logger.Info("abandoned jobs failed", zap.Int("count", swept))
	}
	return swept, nil
}

func (s *JobSweeper) isAbandoned(job *entities.Job, now time.Time) bool {
	reference := job.CreatedAt()
	if started := job.StartedAt(); started != nil {
		reference = *started
	}
	return now.Sub(reference) > s.deadline
}

func (s *JobSweeper) failAbandoned(ctx context.Context, job *entities.Job) error {
	if err := job.Fail(fmt.Sprintf("abandoned after %s without completing", s.deadline)); err != nil {
		return err
	}

	if err := s.jobs.Save(ctx, job); err != nil {
		// Lost the race: the worker finished, or another sweeper got here
		// first. Either way the job is settled.
		if errors.Is(err, pkgerrors.ErrConcurrentModification) {
			return nil
		}
		return fmt.Errorf("failed to save job %s: %w", job.ID(), err)
	}

	uncommitted := job.GetUncommittedEvents()
	if err := s.eventStore.SaveEvents(ctx, uncommitted); err != nil {
		s.logger.Warn("failed to save sweep events",
			zap.String("jobID", job.ID()),
			zap.Error(err),
		)
	}
	if err := s.publisher.PublishBatch(ctx, uncommitted); err != nil {
		s.logger.Warn("failed to publish sweep events",
			zap.String("jobID", job.ID()),
			zap.Error(err),
		)
	}
	job.MarkEventsAsCommitted()

	s.logger.Info("abandoned job failed",
		zap.String("jobID", job.ID()),
		zap.String("tool", string(job.Tool())),
	)
	return nil
}
