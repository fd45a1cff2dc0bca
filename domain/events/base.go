package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Ontology Events

// OntologyLoaded is raised when a term graph has been parsed and sealed
type OntologyLoaded struct {
	BaseEvent
	Release   string   `json:"release"`
	Sources   []string `json:"sources"`
	TermCount int      `json:"term_count"`
	AltCount  int      `json:"alt_count"`
	FromCache bool     `json:"from_cache"`
}

// NewOntologyLoaded creates an OntologyLoaded event
func NewOntologyLoaded(release string, sources []string, termCount, altCount int, fromCache bool, timestamp time.Time) OntologyLoaded {
	return OntologyLoaded{
		BaseEvent: BaseEvent{
			AggregateID: release,
			EventType:   "ontology.loaded",
			Timestamp:   timestamp,
			Version:     1,
		},
		Release:   release,
		Sources:   sources,
		TermCount: termCount,
		AltCount:  altCount,
		FromCache: fromCache,
	}
}

// OntologyReloaded is raised when a watcher swaps in a fresh snapshot
type OntologyReloaded struct {
	BaseEvent
	OldRelease string `json:"old_release"`
	NewRelease string `json:"new_release"`
	TermCount  int    `json:"term_count"`
}

// NewOntologyReloaded creates an OntologyReloaded event
func NewOntologyReloaded(oldRelease, newRelease string, termCount int, timestamp time.Time) OntologyReloaded {
	return OntologyReloaded{
		BaseEvent: BaseEvent{
			AggregateID: newRelease,
			EventType:   "ontology.reloaded",
			Timestamp:   timestamp,
			Version:     1,
		},
		OldRelease: oldRelease,
		NewRelease: newRelease,
		TermCount:  termCount,
	}
}

// SlimLoaded is raised when a slim set has been resolved against the graph
type SlimLoaded struct {
	BaseEvent
	Source    string `json:"source"`
	SlimCount int    `json:"slim_count"`
	Shape     string `json:"shape"`
}

// NewSlimLoaded creates a SlimLoaded event
func NewSlimLoaded(source, shape string, slimCount int, timestamp time.Time) SlimLoaded {
	return SlimLoaded{
		BaseEvent: BaseEvent{
			AggregateID: source,
			EventType:   "slim.loaded",
			Timestamp:   timestamp,
			Version:     1,
		},
		Source:    source,
		SlimCount: slimCount,
		Shape:     shape,
	}
}

// CacheRebuilt is raised after an admin-triggered cache rebuild
type CacheRebuilt struct {
	BaseEvent
	CachePath string `json:"cache_path"`
	Release   string `json:"release"`
	TermCount int    `json:"term_count"`
	Forced    bool   `json:"forced"`
}

// NewCacheRebuilt creates a CacheRebuilt event
func NewCacheRebuilt(cachePath, release string, termCount int, forced bool, timestamp time.Time) CacheRebuilt {
	return CacheRebuilt{
		BaseEvent: BaseEvent{
			AggregateID: cachePath,
			EventType:   "ontology.cache_rebuilt",
			Timestamp:   timestamp,
			Version:     1,
		},
		CachePath: cachePath,
		Release:   release,
		TermCount: termCount,
		Forced:    forced,
	}
}

// Job Events

// JobSubmitted is raised when a mapping or enrichment job is accepted
type JobSubmitted struct {
	BaseEvent
	JobID string `json:"job_id"`
	Tool  string `json:"tool"`
	Mode  string `json:"mode"`
}

// NewJobSubmitted creates a JobSubmitted event
func NewJobSubmitted(jobID, tool, mode string, timestamp time.Time) JobSubmitted {
	return JobSubmitted{
		BaseEvent: BaseEvent{
			AggregateID: jobID,
			EventType:   "job.submitted",
			Timestamp:   timestamp,
			Version:     1,
		},
		JobID: jobID,
		Tool:  tool,
		Mode:  mode,
	}
}

// JobCompleted is raised when a job finishes successfully
type JobCompleted struct {
	BaseEvent
	JobID     string   `json:"job_id"`
	Tool      string   `json:"tool"`
	Artifacts []string `json:"artifacts"`
	Duration  int64    `json:"duration_ms"`
}

// NewJobCompleted creates a JobCompleted event
func NewJobCompleted(jobID, tool string, artifacts []string, durationMillis int64, timestamp time.Time) JobCompleted {
	return JobCompleted{
		BaseEvent: BaseEvent{
			AggregateID: jobID,
			EventType:   "job.completed",
			Timestamp:   timestamp,
			Version:     1,
		},
		JobID:     jobID,
		Tool:      tool,
		Artifacts: artifacts,
		Duration:  durationMillis,
	}
}

// JobFailed is raised when a job terminates with an error
type JobFailed struct {
	BaseEvent
	JobID  string `json:"job_id"`
	Tool   string `json:"tool"`
	Reason string `json:"reason"`
}

// NewJobFailed creates a JobFailed event
func NewJobFailed(jobID, tool, reason string, timestamp time.Time) JobFailed {
	return JobFailed{
		BaseEvent: BaseEvent{
			AggregateID: jobID,
			EventType:   "job.failed",
			Timestamp:   timestamp,
			Version:     1,
		},
		JobID:  jobID,
		Tool:   tool,
		Reason: reason,
	}
}

// ArtifactStored is raised when a result file lands in the object store
type ArtifactStored struct {
	BaseEvent
	JobID string `json:"job_id"`
	Key   string `json:"key"`
	Size  int64  `json:"size"`
}

// NewArtifactStored creates an ArtifactStored event
func NewArtifactStored(jobID, key string, size int64, timestamp time.Time) ArtifactStored {
	return ArtifactStored{
		BaseEvent: BaseEvent{
			AggregateID: jobID,
			EventType:   "artifact.stored",
			Timestamp:   timestamp,
			Version:     1,
		},
		JobID: jobID,
		Key:   key,
		Size:  size,
	}
}
