package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"goslim/domain/events"
)

const (
	eventKeyPrefix     = "EVENTS#"
	eventSortPrefix    = "EVENT#"
	eventTypeKeyPrefix = "EVENTTYPE#"
	eventTimePrefix    = "TIMESTAMP#"

	// BatchWriteItem accepts at most 25 write requests per call
	eventBatchSize = 25

	// Stored events expire via the table's TTL attribute after a year
	eventRetention = 365 * 24 * time.Hour

	defaultEventLimit = 50
)

// EventStore implements ports.EventStore, keeping an append-only audit
// trail of domain events per aggregate.
//
// Key layout:
//
//	PK:     EVENTS#<aggregate_id>   SK:     EVENT#<timestamp>#<event_id>
//	GSI2PK: EVENTTYPE#<event_type>  GSI2SK: TIMESTAMP#<timestamp>
type EventStore struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewEventStore creates an event store backed by the given table
func NewEventStore(client DynamoDBAPI, tableName string, logger *zap.Logger) *EventStore {
	return &EventStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// EventRecord is the storage representation of one domain event
type EventRecord struct {
	PK          string                 `dynamodbav:"PK"`
	SK          string                 `dynamodbav:"SK"`
	GSI2PK      string                 `dynamodbav:"GSI2PK"`
	GSI2SK      string                 `dynamodbav:"GSI2SK"`
	EventID     string                 `dynamodbav:"EventID"`
	EventType   string                 `dynamodbav:"EventType"`
	AggregateID string                 `dynamodbav:"AggregateID"`
	Timestamp   string                 `dynamodbav:"Timestamp"`
	Version     int                    `dynamodbav:"Version"`
	EventData   map[string]interface{} `dynamodbav:"EventData"`
	TTL         int64                  `dynamodbav:"TTL"`
}

// SaveEvents persists domain events in batches
func (s *EventStore) SaveEvents(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	writes := make([]types.WriteRequest, 0, len(domainEvents))
	for _, event := range domainEvents {
		record, err := s.eventToRecord(event)
		if err != nil {
			return err
		}
		av, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", record.EventID, err)
		}
		writes = append(writes, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: av},
		})
	}

	for start := 0; start < len(writes); start += eventBatchSize {
		end := start + eventBatchSize
		if end > len(writes) {
			end = len(writes)
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: writes[start:end],
			},
		})
		if err != nil {
			return fmt.Errorf("failed to save events: %w", err)
		}
		if unprocessed := len(out.UnprocessedItems[s.tableName]); unprocessed > 0 {
			return fmt.Errorf("failed to save %d of %d events", unprocessed, end-start)
		}
	}

	s.logger.Debug("events saved", zap.Int("count", len(domainEvents)))
	return nil
}

// GetEvents retrieves all events for an aggregate in chronological order
func (s *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	var result []events.DomainEvent
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: eventKeyPrefix + aggregateID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get events for %s: %w", aggregateID, err)
		}

		decoded, err := s.decodeItems(out.Items)
		if err != nil {
			return nil, err
		}
		result = append(result, decoded...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return result, nil
}

// GetEventsByType retrieves the most recent events of one type, newest first
func (s *EventStore) GetEventsByType(ctx context.Context, eventType string, limit int) ([]events.DomainEvent, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(timeIndexName),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: eventTypeKeyPrefix + eventType},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get events of type %s: %w", eventType, err)
	}

	return s.decodeItems(out.Items)
}

func (s *EventStore) decodeItems(items []map[string]types.AttributeValue) ([]events.DomainEvent, error) {
	decoded := make([]events.DomainEvent, 0, len(items))
	for _, item := range items {
		var record EventRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event record: %w", err)
		}
		event, err := recordToEvent(record)
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, event)
	}
	return decoded, nil
}

func (s *EventStore) eventToRecord(event events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return EventRecord{}, fmt.Errorf("failed to encode event %s: %w", event.GetEventType(), err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		return EventRecord{}, fmt.Errorf("failed to encode event %s: %w", event.GetEventType(), err)
	}

	eventID := uuid.New().String()
	timestamp := event.GetTimestamp().UTC()
	sortTime := timestamp.Format(sortTimeLayout)

	return EventRecord{
		PK:          eventKeyPrefix + event.GetAggregateID(),
		SK:          fmt.Sprintf("%s%s#%s", eventSortPrefix, sortTime, eventID),
		GSI2PK:      eventTypeKeyPrefix + event.GetEventType(),
		GSI2SK:      eventTimePrefix + sortTime,
		EventID:     eventID,
		EventType:   event.GetEventType(),
		AggregateID: event.GetAggregateID(),
		Timestamp:   timestamp.Format(time.RFC3339Nano),
		Version:     event.GetVersion(),
		EventData:   data,
		TTL:         timestamp.Add(eventRetention).Unix(),
	}, nil
}

// recordToEvent rebuilds the typed event from its stored payload. Types not
// in the switch come back as a bare BaseEvent, which keeps old records
// readable after an event type is retired.
func recordToEvent(record EventRecord) (events.DomainEvent, error) {
	payload, err := json.Marshal(record.EventData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored event %s: %w", record.EventID, err)
	}

	switch record.EventType {
	case "job.submitted":
		var event events.JobSubmitted
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode stored event %s: %w", record.EventID, err)
		}
		return event, nil
	case "job.completed":
		var event events.JobCompleted
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode stored event %s: %w", record.EventID, err)
		}
		return event, nil
	case "job.failed":
		var event events.JobFailed
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode stored event %s: %w", record.EventID, err)
		}
		return event, nil
	case "artifact.stored":
		var event events.ArtifactStored
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode stored event %s: %w", record.EventID, err)
		}
		return event, nil
	case "ontology.loaded":
		var event events.OntologyLoaded
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode stored event %s: %w", record.EventID, err)
		}
		return event, nil
	case "ontology.reloaded":
		var event events.OntologyReloaded
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode stored event %s: %w", record.EventID, err)
		}
		return event, nil
	case "ontology.cache_rebuilt":
		var event events.CacheRebuilt
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode stored event %s: %w", record.EventID, err)
		}
		return event, nil
	case "slim.loaded":
		var event events.SlimLoaded
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to decode stored event %s: %w", record.EventID, err)
		}
		return event, nil
	default:
		timestamp, err := time.Parse(time.RFC3339Nano, record.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp of stored event %s: %w", record.EventID, err)
		}
		return events.BaseEvent{
			AggregateID: record.AggregateID,
			EventType:   record.EventType,
			Timestamp:   timestamp,
			Version:     record.Version,
		}, nil
	}
}
