package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goslim/application/commands"
	"goslim/application/ports"
	"goslim/domain/events"
	"goslim/domain/versioning"
)

const (
	rebuildLockID  = "ontology-cache-rebuild"
	rebuildLockTTL = 5 * time.Minute
)

// RebuildCacheHandler reparses the ontology sources under a distributed
// lock and swaps the served snapshot. Two concurrent rebuilds would race on
// the cache file, so the lock is mandatory.
type RebuildCacheHandler struct {
	lock       ports.DistributedLock
	reloader   ports.OntologyReloader
	eventStore ports.EventStore
	eventBus   ports.EventBus
	cachePath  string
	logger     *zap.Logger
}

// NewRebuildCacheHandler creates a new rebuild handler
func NewRebuildCacheHandler(
	lock ports.DistributedLock,
	reloader ports.OntologyReloader,
	eventStore ports.EventStore,
	eventBus ports.EventBus,
	cachePath string,
	logger *zap.Logger,
) *RebuildCacheHandler {
	return &RebuildCacheHandler{
		lock:       lock,
		reloader:   reloader,
		eventStore: eventStore,
		eventBus:   eventBus,
		cachePath:  cachePath,
		logger:     logger,
	}
}

// Handle executes the rebuild command and returns the new version
func (h *RebuildCacheHandler) Handle(ctx context.Context, cmd commands.RebuildCacheCommand) (*versioning.OntologyVersion, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	if err := h.lock.AcquireLock(ctx, rebuildLockID, rebuildLockTTL); err != nil {
		return nil, fmt.Errorf("failed to acquire rebuild lock: %w", err)
	}
	defer func() {
		if err := h.lock.ReleaseLock(ctx, rebuildLockID); err != nil {
			h.logger.Error("failed to release rebuild lock",
				zap.String("lockID", rebuildLockID),
				zap.Error(err),
			)
		}
	}()

	loaded, err := h.reloader.Reload(ctx, cmd.Force)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild ontology cache: %w", err)
	}

	event := events.NewCacheRebuilt(
		h.cachePath,
		loaded.Version.Release,
		loaded.Version.TermCount,
		cmd.Force,
		time.Now(),
	)
	h.recordEvent(ctx, event)

	h.logger.Info("ontology cache rebuilt",
		zap.String("release", loaded.Version.Release),
		zap.Int("termCount", loaded.Version.TermCount),
		zap.Bool("forced", cmd.Force),
	)
	return loaded.Version, nil
}

// recordEvent persists and publishes a rebuild event, best-effort
func (h *RebuildCacheHandler) recordEvent(ctx context.Context, event events.DomainEvent) {
	batch := []events.DomainEvent{event}
	if err := h.eventStore.SaveEvents(ctx, batch); err != nil {
		h.logger.Error("failed to persist rebuild event", zap.Error(err))
	}
	if err := h.eventBus.PublishBatch(ctx, batch); err != nil {
		h.logger.Error("failed to publish rebuild event", zap.Error(err))
	}
}
