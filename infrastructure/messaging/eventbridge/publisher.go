package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"seopilot-backend/application/ports"
	"seopilot-backend/domain/events"
)

const (
	eventSource = "seopilot.backend"

	// putEventsBatchSize is the EventBridge PutEvents entry limit
	putEventsBatchSize = 10
)

// Publisher publishes domain events to an EventBridge bus
type Publisher struct {
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client *eventbridge.Client, busName string, logger *zap.Logger) ports.EventPublisher {
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// eventEnvelope is the JSON detail payload for a domain event
type eventEnvelope struct {
	AggregateID string    `json:"aggregateId"`
	EventType   string    `json:"eventType"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
	Event       any       `json:"event"`
}

// Publish sends domain events to the bus in PutEvents batches
func (p *Publisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	entries := make([]types.PutEventsRequestEntry, 0, len(evts))
	for _, event := range evts {
		detail, err := json.Marshal(eventEnvelope{
			AggregateID: event.GetAggregateID(),
			EventType:   event.GetEventType(),
			Timestamp:   event.GetTimestamp(),
			Version:     event.GetVersion(),
			Event:       event,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.GetEventType(), err)
		}

		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(eventSource),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
		})
	}

	for start := 0; start < len(entries); start += putEventsBatchSize {
		end := start + putEventsBatchSize
		if end > len(entries) {
			end = len(entries)
		}

		output, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
			Entries: entries[start:end],
		})
		if err != nil {
			p.logger.Error("Failed to publish events",
				zap.Int("batchSize", end-start),
				zap.Error(err),
			)
			return fmt.Errorf("failed to publish events: %w", err)
		}

		if output.FailedEntryCount > 0 {
			for _, entry := range output.Entries {
				if entry.ErrorCode != nil {
					p.logger.Error("Event entry rejected",
						zap.String("errorCode", aws.ToString(entry.ErrorCode)),
						zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
					)
				}
			}
			return fmt.Errorf("%d event entries rejected", output.FailedEntryCount)
		}
	}

	p.logger.Debug("Published domain events", zap.Int("count", len(evts)))
	return nil
}
