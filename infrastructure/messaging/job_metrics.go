package messaging

import (
	"context"
	"time"

	"goslim/domain/events"
	"goslim/pkg/observability"
)

// JobMetricsHandler projects job and ontology lifecycle events into
// CloudWatch metrics. It subscribes to the event bus so the command
// handlers stay free of metrics plumbing.
type JobMetricsHandler struct {
	metrics *observability.Metrics
}

// NewJobMetricsHandler creates a metrics projection handler
func NewJobMetricsHandler(metrics *observability.Metrics) *JobMetricsHandler {
	return &JobMetricsHandler{metrics: metrics}
}

// EventTypes lists the event types this handler should be subscribed to
func (h *JobMetricsHandler) EventTypes() []string {
	return []string{
		"job.completed",
		"job.failed",
		"ontology.loaded",
		"ontology.cache_rebuilt",
	}
}

// CanHandle checks if this handler can process the event
func (h *JobMetricsHandler) CanHandle(eventType string) bool {
	for _, t := range h.EventTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}

// Handle processes an event
func (h *JobMetricsHandler) Handle(_ context.Context, event events.DomainEvent) error {
	switch e := event.(type) {
	case events.JobCompleted:
		h.metrics.Increment("job_count", e.Tool)
		h.metrics.RecordDuration("job_duration", e.Tool, time.Duration(e.Duration)*time.Millisecond)
	case events.JobFailed:
		h.metrics.Increment("job_errors", e.Tool)
	case events.OntologyLoaded:
		if e.FromCache {
			h.metrics.Increment("graph_cache_hits", "")
		} else {
			h.metrics.Increment("graph_cache_misses", "")
		}
	case events.CacheRebuilt:
		h.metrics.Increment("cache_rebuilds", "")
	}
	return nil
}
