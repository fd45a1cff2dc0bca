package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goslim/application/commands"
	"goslim/application/ports"
	"goslim/domain/events"
)

type fakeLock struct {
	acquired   []string
	released   []string
	acquireErr error
}

func (l *fakeLock) AcquireLock(ctx context.Context, lockID string, ttl time.Duration) error {
	if l.acquireErr != nil {
		return l.acquireErr
	}
	l.acquired = append(l.acquired, lockID)
	return nil
}

func (l *fakeLock) ReleaseLock(ctx context.Context, lockID string) error {
	l.released = append(l.released, lockID)
	return nil
}

type stubReloader struct {
	loaded *ports.LoadedOntology
	err    error
	forced []bool
}

func (r *stubReloader) Reload(ctx context.Context, force bool) (*ports.LoadedOntology, error) {
	r.forced = append(r.forced, force)
	if r.err != nil {
		return nil, r.err
	}
	return r.loaded, nil
}

func TestRebuildCacheHandler_Handle_Success(t *testing.T) {
	ctx := context.Background()
	lock := &fakeLock{}
	reloader := &stubReloader{loaded: pipelineFixture(t)}
	eventBus := &memoryEventBus{}
	handler := NewRebuildCacheHandler(lock, reloader, &memoryEventStore{}, eventBus, "/var/cache/ontology.json", zap.NewNop())

	version, err := handler.Handle(ctx, commands.RebuildCacheCommand{Force: true})

	require.NoError(t, err)
	require.NotNil(t, version)
	assert.Equal(t, "fixture-release", version.Release)

	assert.Equal(t, []string{"ontology-cache-rebuild"}, lock.acquired)
	assert.Equal(t, []string{"ontology-cache-rebuild"}, lock.released)
	assert.Equal(t, []bool{true}, reloader.forced)

	require.Len(t, eventBus.published, 1)
	rebuilt, ok := eventBus.published[0].(events.CacheRebuilt)
	require.True(t, ok)
	assert.Equal(t, "/var/cache/ontology.json", rebuilt.CachePath)
	assert.Equal(t, "fixture-release", rebuilt.Release)
	assert.True(t, rebuilt.Forced)
}

func TestRebuildCacheHandler_Handle_LockBusy(t *testing.T) {
	ctx := context.Background()
	lock := &fakeLock{acquireErr: errors.New("lock held by another process")}
	reloader := &stubReloader{loaded: pipelineFixture(t)}
	handler := NewRebuildCacheHandler(lock, reloader, &memoryEventStore{}, &memoryEventBus{}, "/var/cache/ontology.json", zap.NewNop())

	version, err := handler.Handle(ctx, commands.RebuildCacheCommand{})

	assert.Nil(t, version)
	assert.ErrorContains(t, err, "failed to acquire rebuild lock")
	assert.Empty(t, reloader.forced)
	assert.Empty(t, lock.released)
}

func TestRebuildCacheHandler_Handle_ReloadFailureReleasesLock(t *testing.T) {
	ctx := context.Background()
	lock := &fakeLock{}
	reloader := &stubReloader{err: errors.New("ontology file corrupt")}
	handler := NewRebuildCacheHandler(lock, reloader, &memoryEventStore{}, &memoryEventBus{}, "/var/cache/ontology.json", zap.NewNop())

	version, err := handler.Handle(ctx, commands.RebuildCacheCommand{})

	assert.Nil(t, version)
	assert.ErrorContains(t, err, "failed to rebuild ontology cache")
	assert.Equal(t, []string{"ontology-cache-rebuild"}, lock.released)
}
