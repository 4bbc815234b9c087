package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes review events to the supervisor queue. Publishing is
// best-effort from the workflow's point of view: a failed publish never
// fails the attendance action it describes.
type Producer struct {
	sender         MessageSender
	reviewQueueURL string
}

func NewProducer(sender MessageSender, reviewQueueURL string) *Producer {
	return &Producer{
		sender:         sender,
		reviewQueueURL: reviewQueueURL,
	}
}

// NewSQSProducer creates a Producer backed by an AWS SQS sender.
func NewSQSProducer(client SQSClient, reviewQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, reviewQueueURL)
}

func (p *Producer) PublishFlaggedLocation(ctx context.Context, event FlaggedLocationEvent) error {
	return p.publish(ctx, event)
}

func (p *Producer) PublishLateArrival(ctx context.Context, event LateArrivalEvent) error {
	return p.publish(ctx, event)
}

func (p *Producer) publish(ctx context.Context, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with the attendance id if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		var payload struct {
			AttendanceID string `json:"attendanceId"`
		}
		if err := json.Unmarshal(b, &payload); err == nil && payload.AttendanceID != "" {
			span.SetAttributes(attribute.String("app.attendanceId", payload.AttendanceID))
		}
	}

	if err := p.sender.SendMessage(ctx, p.reviewQueueURL, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
