package ports

import (
	"context"
	"io"
	"time"

	"goslim/domain/core/aggregates"
	"goslim/domain/core/entities"
	"goslim/domain/events"
	"goslim/domain/versioning"
)

// GraphCache persists parsed ontology graphs between runs.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type GraphCache interface {
	// Load restores a cached graph when the envelope matches the given
	// sources and their current on-disk fingerprints
	Load(ctx context.Context, sources []string) (*aggregates.TermGraph, *versioning.OntologyVersion, error)

	// Store writes the graph together with its source fingerprints
	Store(ctx context.Context, graph *aggregates.TermGraph) (*versioning.OntologyVersion, error)
}

// JobRepository defines the interface for job record persistence
type JobRepository interface {
	// Save persists a job (create or update)
	Save(ctx context.Context, job *entities.Job) error

	// GetByID retrieves a job by its ID
	GetByID(ctx context.Context, id string) (*entities.Job, error)

	// List retrieves jobs matching the criteria, newest first
	List(ctx context.Context, criteria JobListCriteria) ([]*entities.Job, string, error)
}

// JobListCriteria defines job listing parameters
type JobListCriteria struct {
	Status entities.JobStatus
	Tool   entities.JobTool
	Limit  int
	Cursor string
}

// EventStore defines the interface for event persistence
type EventStore interface {
	// SaveEvents persists domain events
	SaveEvents(ctx context.Context, events []events.DomainEvent) error

	// GetEvents retrieves events for an aggregate
	GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error)

	// GetEventsByType retrieves events of a specific type
	GetEventsByType(ctx context.Context, eventType string, limit int) ([]events.DomainEvent, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus defines the interface for publishing domain events
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType string, handler EventHandler) error

	// Unsubscribe removes a handler
	Unsubscribe(eventType string, handler EventHandler) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event
	CanHandle(eventType string) bool
}

// DistributedLock guards operations that must not run concurrently across
// processes, such as a cache rebuild
type DistributedLock interface {
	// AcquireLock takes the named lock for at most ttl
	AcquireLock(ctx context.Context, lockID string, ttl time.Duration) error

	// ReleaseLock releases the named lock
	ReleaseLock(ctx context.Context, lockID string) error
}

// ResultStore uploads result artifacts and returns their public URLs
type ResultStore interface {
	// Store writes one artifact under the given key
	Store(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
