package events

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// EventBridgePublisher sends domain events to an AWS EventBridge bus.
type EventBridgePublisher struct {
	client       *eventbridge.Client
	eventBusName string
	source       string
	logger       *zap.Logger
}

// NewEventBridgePublisher creates a publisher for the given bus.
func NewEventBridgePublisher(client *eventbridge.Client, eventBusName, source string, logger *zap.Logger) *EventBridgePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBridgePublisher{
		client:       client,
		eventBusName: eventBusName,
		source:       source,
		logger:       logger.Named("EventBridgePublisher"),
	}
}

var _ Publisher = (*EventBridgePublisher)(nil)

// Publish sends a single event. Failures are returned to the caller, who
// decides whether delivery is best-effort.
func (p *EventBridgePublisher) Publish(ctx context.Context, event Event) error {
	detail, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event",
			zap.Error(err), zap.String("eventType", event.Type))
		return err
	}

	_, err = p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(event.Type),
			Detail:       aws.String(string(detail)),
		}},
	})
	if err != nil {
		p.logger.Error("failed to publish event",
			zap.Error(err), zap.String("eventType", event.Type))
		return err
	}
	return nil
}
