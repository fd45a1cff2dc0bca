package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"goslim/application/ports"
	"goslim/domain/events"
)

// eventSource identifies this service on the bus
const eventSource = "goslim"

// putEventsBatchSize is the PutEvents per-call entry limit
const putEventsBatchSize = 10

// EventBridgeAPI is the subset of the EventBridge client used by the publisher.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher publishes domain events to an EventBridge bus and
// fans them out to in-process subscribers. With a nil client or empty bus
// name it runs in local-only mode, which is how the CLI and tests use it.
type EventBridgePublisher struct {
	client  EventBridgeAPI
	busName string
	logger  *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
}

// NewEventBridgePublisher creates a publisher for the named event bus
func NewEventBridgePublisher(client EventBridgeAPI, busName string, logger *zap.Logger) *EventBridgePublisher {
	return &EventBridgePublisher{
		client:   client,
		busName:  busName,
		logger:   logger,
		handlers: make(map[string][]ports.EventHandler),
	}
}

// Publish sends a single event
func (p *EventBridgePublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends multiple events. Local subscribers always run;
// their failures are logged rather than surfaced so a broken projection
// cannot fail the operation that raised the event.
func (p *EventBridgePublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	if len(batch) == 0 {
		return nil
	}

	p.dispatchLocal(ctx, batch)

	if p.client == nil || p.busName == "" {
		return nil
	}

	entries := make([]types.PutEventsRequestEntry, 0, len(batch))
	for _, event := range batch {
		detail, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to encode event %s: %w", event.GetEventType(), err)
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(eventSource),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
		})
	}

	for len(entries) > 0 {
		chunk := entries
		if len(chunk) > putEventsBatchSize {
			chunk = chunk[:putEventsBatchSize]
		}
		entries = entries[len(chunk):]

		out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: chunk})
		if err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}
		if out.FailedEntryCount > 0 {
			return fmt.Errorf("failed to publish %d of %d events: %s",
				out.FailedEntryCount, len(chunk), firstFailure(out.Entries))
		}
	}

	return nil
}

// Subscribe registers a handler for an event type
func (p *EventBridgePublisher) Subscribe(eventType string, handler ports.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler must not be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = append(p.handlers[eventType], handler)
	return nil
}

// Unsubscribe removes a handler
func (p *EventBridgePublisher) Unsubscribe(eventType string, handler ports.EventHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	registered := p.handlers[eventType]
	for i, h := range registered {
		if h == handler {
			p.handlers[eventType] = append(registered[:i:i], registered[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("handler not subscribed to event type %s", eventType)
}

func (p *EventBridgePublisher) dispatchLocal(ctx context.Context, batch []events.DomainEvent) {
	for _, event := range batch {
		eventType := event.GetEventType()

		p.mu.RLock()
		registered := make([]ports.EventHandler, len(p.handlers[eventType]))
		copy(registered, p.handlers[eventType])
		p.mu.RUnlock()

		for _, handler := range registered {
			if !handler.CanHandle(eventType) {
				continue
			}
			if err := handler.Handle(ctx, event); err != nil {
				p.logger.Warn("event handler failed",
					zap.String("eventType", eventType),
					zap.String("aggregateId", event.GetAggregateID()),
					zap.Error(err),
				)
			}
		}
	}
}

func firstFailure(entries []types.PutEventsResultEntry) string {
	for _, entry := range entries {
		if entry.ErrorCode != nil {
			return fmt.Sprintf("%s: %s", aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
		}
	}
	return "unknown failure"
}
