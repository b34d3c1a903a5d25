package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const (
	RoutingFriendEvents  = "friend_events"
	RoutingMessageEvents = "message_events"
	RoutingWSEvents      = "ws_events"
)

// Publisher ships events to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type EventEnvelope struct {
	EventType  string    `json:"event_type"`
	EventName  string    `json:"event_name"`
	OccurredAt time.Time `json:"occurred_at"`
	RequestID  string    `json:"request_id,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	Payload    any       `json:"payload"`
}

type requestIDKey struct{}

// WithRequestID stores the request id for events emitted further down the call.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NewEnvelope stamps an event with the time, request id and trace id found in ctx.
func NewEnvelope(ctx context.Context, eventType, eventName string, payload any) EventEnvelope {
	env := EventEnvelope{
		EventType:  eventType,
		EventName:  eventName,
		OccurredAt: time.Now().UTC(),
		RequestID:  RequestIDFromContext(ctx),
		Payload:    payload,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		env.TraceID = sc.TraceID().String()
	}
	return env
}

var defaultPublisher Publisher

func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

// PublishEvent is a no-op until SetPublisher is called.
func PublishEvent(ctx context.Context, routingKey, eventType, eventName string, payload any) error {
	if defaultPublisher == nil {
		return nil
	}

	err := defaultPublisher.Publish(ctx, routingKey, NewEnvelope(ctx, eventType, eventName, payload))
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
