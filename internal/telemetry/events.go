package telemetry

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"

	"chat-backend/internal/observability"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// EventEmitter publishes chat lifecycle events to the message broker.
// A nil emitter or nil publisher makes Emit a no-op.
type EventEmitter struct {
	publisher   Publisher
	service     string
	environment string
}

type EventMeta struct {
	RequestID string
	ClientIP  string
	UserID    *int64
}

type EventEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	RequestID     string `json:"request_id,omitempty"`
	TraceID       string `json:"trace_id,omitempty"`
	ClientIP      string `json:"client_ip,omitempty"`
	UserID        *int64 `json:"user_id,omitempty"`
	Payload       any    `json:"payload,omitempty"`
}

func NewEventEmitter(publisher Publisher, service, environment string) *EventEmitter {
	return &EventEmitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
	}
}

// Emit publishes an event envelope under the "chat.<eventType>" routing key.
// Publish failures are logged and counted, never surfaced to the request.
func (e *EventEmitter) Emit(ctx context.Context, eventType string, meta EventMeta, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := EventEnvelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     meta.RequestID,
		ClientIP:      meta.ClientIP,
		UserID:        meta.UserID,
		Payload:       payload,
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		envelope.TraceID = sc.TraceID().String()
	}

	if err := e.publisher.Publish(ctx, "chat."+eventType, envelope); err != nil {
		observability.IncAMQPPublishError()
		log.Printf("event publish failed: type=%s err=%v", eventType, err)
	}
}
