package entities

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"goslim/domain/events"
	pkgerrors "goslim/pkg/errors"
)

// JobStatus enumerates the lifecycle states of a pipeline job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// JobTool identifies which pipeline a job runs
type JobTool string

const (
	JobToolSlimMapper JobTool = "slim-mapper"
	JobToolTermFinder JobTool = "term-finder"
)

// Job is one asynchronous pipeline run submitted through the service
// surface. State transitions record domain events for the event store and
// the bus.
type Job struct {
	id         string
	tool       JobTool
	mode       string
	params     map[string]string
	status     JobStatus
	artifacts  map[string]string
	message    string
	createdAt  time.Time
	startedAt  *time.Time
	finishedAt *time.Time
	version    int
	events     []events.DomainEvent
}

// NewJob creates a pending job and records its submission event. Callers
// that need to reference the job before the command completes supply the
// id themselves; an empty id gets a generated one.
func NewJob(id string, tool JobTool, mode string, params map[string]string) *Job {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	job := &Job{
		id:        id,
		tool:      tool,
		mode:      mode,
		params:    copyStringMap(params),
		status:    JobStatusPending,
		artifacts: make(map[string]string),
		createdAt: now,
		version:   1,
	}

	job.addEvent(events.NewJobSubmitted(job.id, string(tool), mode, now))
	return job
}

// ReconstructJob recreates a job from stored data without emitting events
func ReconstructJob(
	id string,
	tool JobTool,
	mode string,
	params map[string]string,
	status JobStatus,
	artifacts map[string]string,
	message string,
	createdAt time.Time,
	startedAt *time.Time,
	finishedAt *time.Time,
	version int,
) *Job {
	return &Job{
		id:         id,
		tool:       tool,
		mode:       mode,
		params:     copyStringMap(params),
		status:     status,
		artifacts:  copyStringMap(artifacts),
		message:    message,
		createdAt:  createdAt,
		startedAt:  startedAt,
		finishedAt: finishedAt,
		version:    version,
	}
}

// ID returns the job identifier
func (j *Job) ID() string {
	return j.id
}

// Tool returns which pipeline the job runs
func (j *Job) Tool() JobTool {
	return j.tool
}

// Mode returns the tool-specific mode string
func (j *Job) Mode() string {
	return j.mode
}

// Params returns a copy of the submission parameters
func (j *Job) Params() map[string]string {
	return copyStringMap(j.params)
}

// Status returns the current lifecycle state
func (j *Job) Status() JobStatus {
	return j.status
}

// Artifacts returns a copy of the artifact name to URL map
func (j *Job) Artifacts() map[string]string {
	return copyStringMap(j.artifacts)
}

// Message returns the failure reason or tool notice, if any
func (j *Job) Message() string {
	return j.message
}

// CreatedAt returns the submission time
func (j *Job) CreatedAt() time.Time {
	return j.createdAt
}

// StartedAt returns when execution began, if it has
func (j *Job) StartedAt() *time.Time {
	return j.startedAt
}

// FinishedAt returns when execution ended, if it has
func (j *Job) FinishedAt() *time.Time {
	return j.finishedAt
}

// Version returns the optimistic concurrency version
func (j *Job) Version() int {
	return j.version
}

// Start transitions the job to running
func (j *Job) Start() error {
	if j.status != JobStatusPending {
		return pkgerrors.NewDomainError(
			pkgerrors.DomainConflictError,
			"INVALID_JOB_TRANSITION",
			"Only a pending job can start",
		).WithDetail("job_id", j.id).WithDetail("status", string(j.status))
	}

	now := time.Now()
	j.status = JobStatusRunning
	j.startedAt = &now
	j.version++
	return nil
}

// AddArtifact records one produced artifact by name and public URL
func (j *Job) AddArtifact(name, url string) {
	j.artifacts[name] = url
}

// SetMessage records an informational notice, such as a tool's no-results
// response
func (j *Job) SetMessage(message string) {
	j.message = message
}

// Complete transitions the job to completed and records the lifecycle event
func (j *Job) Complete() error {
	if j.status != JobStatusRunning {
		return pkgerrors.NewDomainError(
			pkgerrors.DomainConflictError,
			"INVALID_JOB_TRANSITION",
			"Only a running job can complete",
		).WithDetail("job_id", j.id).WithDetail("status", string(j.status))
	}

	now := time.Now()
	j.status = JobStatusCompleted
	j.finishedAt = &now
	j.version++

	j.addEvent(events.NewJobCompleted(j.id, string(j.tool), j.artifactNames(), j.durationMillis(now), now))
	return nil
}

// Fail transitions the job to failed with a reason
func (j *Job) Fail(reason string) error {
	if j.status != JobStatusPending && j.status != JobStatusRunning {
		return pkgerrors.NewDomainError(
			pkgerrors.DomainConflictError,
			"INVALID_JOB_TRANSITION",
			"Only a pending or running job can fail",
		).WithDetail("job_id", j.id).WithDetail("status", string(j.status))
	}

	now := time.Now()
	j.status = JobStatusFailed
	j.message = reason
	j.finishedAt = &now
	j.version++

	j.addEvent(events.NewJobFailed(j.id, string(j.tool), reason, now))
	return nil
}

// IsTerminal reports whether the job reached a final state
func (j *Job) IsTerminal() bool {
	return j.status == JobStatusCompleted || j.status == JobStatusFailed
}

// GetUncommittedEvents returns all uncommitted domain events
func (j *Job) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(j.events))
	copy(out, j.events)
	return out
}

// MarkEventsAsCommitted clears all uncommitted events
func (j *Job) MarkEventsAsCommitted() {
	j.events = nil
}

func (j *Job) addEvent(event events.DomainEvent) {
	j.events = append(j.events, event)
}

func (j *Job) artifactNames() []string {
	names := make([]string, 0, len(j.artifacts))
	for name := range j.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (j *Job) durationMillis(finished time.Time) int64 {
	start := j.createdAt
	if j.startedAt != nil {
		start = *j.startedAt
	}
	return finished.Sub(start).Milliseconds()
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
