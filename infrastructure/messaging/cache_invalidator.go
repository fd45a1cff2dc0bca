package messaging

import (
	"context"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/domain/events"
)

// CacheInvalidator clears the query result cache when the served ontology
// changes. Cached term mappings are derived from a snapshot; once a new
// snapshot is swapped in they would answer with the old release until their
// TTL ran out.
type CacheInvalidator struct {
	cache  ports.Cache
	logger *zap.Logger
}

// NewCacheInvalidator creates a cache invalidation projection
func NewCacheInvalidator(cache ports.Cache, logger *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{
		cache:  cache,
		logger: logger,
	}
}

// EventTypes lists the event types this handler should be subscribed to
func (h *CacheInvalidator) EventTypes() []string {
	return []string{
		"ontology.reloaded",
		"ontology.cache_rebuilt",
	}
}

// CanHandle checks if this handler can process the event
func (h *CacheInvalidator) CanHandle(eventType string) bool {
	for _, t := range h.EventTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}

// Handle processes an event
func (h *CacheInvalidator) Handle(ctx context.Context, event events.DomainEvent) error {
	if err := h.cache.Clear(ctx); err != nil {
		return err
	}
	h.logger.Info("query cache cleared",
		zap.String("trigger", event.GetEventType()),
	)
	return nil
}
