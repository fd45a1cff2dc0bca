package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/application/queries"
	"goslim/domain/events"
	pkgerrors "goslim/pkg/errors"
)

// GetJobEventsHandler handles job lifecycle timeline queries
type GetJobEventsHandler struct {
	eventStore ports.EventStore
	logger     *zap.Logger
}

// NewGetJobEventsHandler creates a new job timeline handler
func NewGetJobEventsHandler(eventStore ports.EventStore, logger *zap.Logger) *GetJobEventsHandler {
	return &GetJobEventsHandler{
		eventStore: eventStore,
		logger:     logger,
	}
}

// Handle executes the job timeline query. Every persisted job has at least
// its submission event, so an empty timeline means the job does not exist.
func (h *GetJobEventsHandler) Handle(ctx context.Context, query queries.GetJobEventsQuery) (*queries.JobEventsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	recorded, err := h.eventStore.GetEvents(ctx, query.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job events: %w", err)
	}
	if len(recorded) == 0 {
		return nil, fmt.Errorf("job %s: %w", query.JobID, pkgerrors.ErrJobNotFound)
	}

	views := make([]queries.JobEventView, 0, len(recorded))
	for _, event := range recorded {
		views = append(views, toJobEventView(event))
	}

	h.logger.Debug("job timeline retrieved",
		zap.String("jobID", query.JobID),
		zap.Int("events", len(views)),
	)
	return &queries.JobEventsResult{
		JobID:  query.JobID,
		Count:  len(views),
		Events: views,
	}, nil
}

// toJobEventView flattens a domain event into its external representation
func toJobEventView(event events.DomainEvent) queries.JobEventView {
	view := queries.JobEventView{
		Type:      event.GetEventType(),
		Timestamp: event.GetTimestamp().UTC().Format(time.RFC3339Nano),
	}

	switch e := event.(type) {
	case events.JobSubmitted:
		view.Detail = map[string]string{"tool": e.Tool}
		if e.Mode != "" {
			view.Detail["mode"] = e.Mode
		}
	case events.JobCompleted:
		view.Detail = map[string]string{
			"tool":       e.Tool,
			"durationMs": strconv.FormatInt(e.Duration, 10),
			"artifacts":  strconv.Itoa(len(e.Artifacts)),
		}
	case events.JobFailed:
		view.Detail = map[string]string{
			"tool":   e.Tool,
			"reason": e.Reason,
		}
	case events.ArtifactStored:
		view.Detail = map[string]string{
			"key":  e.Key,
			"size": strconv.FormatInt(e.Size, 10),
		}
	}
	return view
}
