package queries

import "errors"

// ListJobsQuery represents a query to list job records, newest first
type ListJobsQuery struct {
	Status string // optional: PENDING, RUNNING, COMPLETED, FAILED
	Tool   string // optional: slim-mapper, term-finder
	Limit  int
	Cursor string
}

// Validate validates the query
func (q ListJobsQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	switch q.Status {
	case "", "PENDING", "RUNNING", "COMPLETED", "FAILED":
	default:
		return errors.New("invalid status filter")
	}
	switch q.Tool {
	case "", "slim-mapper", "term-finder":
	default:
		return errors.New("invalid tool filter")
	}
	return nil
}

// ListJobsResult represents one page of job records
type ListJobsResult struct {
	Jobs       []JobView `json:"jobs"`
	Count      int       `json:"count"`
	NextCursor string    `json:"nextCursor,omitempty"`
}
