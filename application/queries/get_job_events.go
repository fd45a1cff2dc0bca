package queries

import (
	"errors"

	"github.com/google/uuid"
)

// GetJobEventsQuery represents a query for the recorded lifecycle events of
// one job, oldest first
type GetJobEventsQuery struct {
	JobID string
}

// Validate validates the GetJobEventsQuery
func (q GetJobEventsQuery) Validate() error {
	if q.JobID == "" {
		return errors.New("job ID is required")
	}
	if _, err := uuid.Parse(q.JobID); err != nil {
		return errors.New("job ID must be a valid UUID")
	}
	return nil
}

// JobEventView is one recorded lifecycle event
type JobEventView struct {
	Type      string            `json:"type"`
	Timestamp string            `json:"timestamp"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// JobEventsResult represents the lifecycle timeline of a job
type JobEventsResult struct {
	JobID  string         `json:"jobId"`
	Count  int            `json:"count"`
	Events []JobEventView `json:"events"`
}
