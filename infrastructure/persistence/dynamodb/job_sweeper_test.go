package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/domain/core/entities"
	"goslim/domain/events"
	pkgerrors "goslim/pkg/errors"
)

// memoryJobRepo is an in-memory ports.JobRepository for sweeper tests
type memoryJobRepo struct {
	mu      sync.Mutex
	jobs    map[string]*entities.Job
	saveErr error
}

func newMemoryJobRepo(jobs ...*entities.Job) *memoryJobRepo {
	repo := &memoryJobRepo{jobs: make(map[string]*entities.Job)}
	for _, job := range jobs {
		repo.jobs[job.ID()] = job
	}
	return repo
}

func (m *memoryJobRepo) Save(_ context.Context, job *entities.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.jobs[job.ID()] = job
	return nil
}

func (m *memoryJobRepo) GetByID(_ context.Context, id string) (*entities.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, pkgerrors.ErrJobNotFound
	}
	return job, nil
}

func (m *memoryJobRepo) List(_ context.Context, criteria ports.JobListCriteria) ([]*entities.Job, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*entities.Job
	for _, job := range m.jobs {
		if criteria.Status != "" && job.Status() != criteria.Status {
			continue
		}
		matched = append(matched, job)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt().After(matched[j].CreatedAt())
	})
	return matched, "", nil
}

// capturingEventSink implements ports.EventStore and records saved events
type capturingEventSink struct {
	mu    sync.Mutex
	saved []events.DomainEvent
}

func (c *capturingEventSink) SaveEvents(_ context.Context, batch []events.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = append(c.saved, batch...)
	return nil
}

func (c *capturingEventSink) GetEvents(context.Context, string) ([]events.DomainEvent, error) {
	return nil, nil
}

func (c *capturingEventSink) GetEventsByType(context.Context, string, int) ([]events.DomainEvent, error) {
	return nil, nil
}

// capturingPublisher implements ports.EventPublisher and records published events
type capturingPublisher struct {
	mu        sync.Mutex
	published []events.DomainEvent
}

func (c *capturingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return c.PublishBatch(ctx, []events.DomainEvent{event})
}

func (c *capturingPublisher) PublishBatch(_ context.Context, batch []events.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, batch...)
	return nil
}

func (c *capturingPublisher) eventTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0, len(c.published))
	for _, event := range c.published {
		types = append(types, event.GetEventType())
	}
	return types
}

func TestJobSweeper_FailsAbandonedJobs(t *testing.T) {
	// Arrange
	now := time.Now()
	staleStart := now.Add(-time.Hour)
	freshStart := now.Add(-time.Minute)

	staleRunning := reconstructedJob("stale-running", entities.JobStatusRunning, now.Add(-2*time.Hour), &staleStart, 2)
	freshRunning := reconstructedJob("fresh-running", entities.JobStatusRunning, now.Add(-time.Minute), &freshStart, 2)
	stalePending := reconstructedJob("stale-pending", entities.JobStatusPending, now.Add(-time.Hour), nil, 1)

	repo := newMemoryJobRepo(staleRunning, freshRunning, stalePending)
	sink := &capturingEventSink{}
	publisher := &capturingPublisher{}
	sweeper := NewJobSweeper(repo, sink, publisher, zap.NewNop())

	// Act
	count, err := sweeper.SweepOnce(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	swept, err := repo.GetByID(context.Background(), "stale-running")
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusFailed, swept.Status())
	assert.Contains(t, swept.Message(), "abandoned")
	assert.NotNil(t, swept.FinishedAt())

	sweptPending, err := repo.GetByID(context.Background(), "stale-pending")
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusFailed, sweptPending.Status())

	untouched, err := repo.GetByID(context.Background(), "fresh-running")
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusRunning, untouched.Status())

	assert.Equal(t, []string{"job.failed", "job.failed"}, publisher.eventTypes())
	assert.Len(t, sink.saved, 2)
}

func TestJobSweeper_SkipsJobsSettledByAnotherProcess(t *testing.T) {
	// Arrange
	now := time.Now()
	staleStart := now.Add(-time.Hour)
	stale := reconstructedJob("stale", entities.JobStatusRunning, now.Add(-2*time.Hour), &staleStart, 2)

	repo := newMemoryJobRepo(stale)
	repo.saveErr = fmt.Errorf("job stale version 3: %w", pkgerrors.ErrConcurrentModification)

	publisher := &capturingPublisher{}
	sweeper := NewJobSweeper(repo, &capturingEventSink{}, publisher, zap.NewNop())

	// Act
	count, err := sweeper.SweepOnce(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, publisher.eventTypes())
}

func TestJobSweeper_StartStop(t *testing.T) {
	// Arrange
	sweeper := NewJobSweeper(newMemoryJobRepo(), &capturingEventSink{}, &capturingPublisher{}, zap.NewNop())
	sweeper.interval = 5 * time.Millisecond

	// Act
	sweeper.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	sweeper.Stop()

	// Assert: Stop returned, so the loop shut down cleanly
	select {
	case <-sweeper.stoppedChan:
	default:
		t.Fatal("sweep loop still running after Stop")
	}
}
