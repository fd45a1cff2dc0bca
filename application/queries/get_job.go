package queries

import (
	"errors"

	"github.com/google/uuid"
)

// GetJobQuery represents a query for one job record
type GetJobQuery struct {
	JobID string
}

// Validate validates the GetJobQuery
func (q GetJobQuery) Validate() error {
	if q.JobID == "" {
		return errors.New("job ID is required")
	}
	if _, err := uuid.Parse(q.JobID); err != nil {
		return errors.New("job ID must be a valid UUID")
	}
	return nil
}

// JobView represents the result of getting a job
type JobView struct {
	ID         string            `json:"id"`
	Tool       string            `json:"tool"`
	Mode       string            `json:"mode,omitempty"`
	Status     string            `json:"status"`
	Message    string            `json:"message,omitempty"`
	Artifacts  map[string]string `json:"artifacts,omitempty"`
	CreatedAt  string            `json:"createdAt"`
	StartedAt  string            `json:"startedAt,omitempty"`
	FinishedAt string            `json:"finishedAt,omitempty"`
	Version    int               `json:"version"`
}
