package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"friend-chat-service/internal/logger"
	"friend-chat-service/internal/observability"
)

// Publisher is the broker side of the audit trail.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// AuditEmitter records who did what to the friend graph and conversations.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one audit line. userID <= 0 means anonymous.
func (e *AuditEmitter) Emit(ctx context.Context, level, text string, userID int64) {
	if e == nil || e.publisher == nil {
		return
	}

	requestID := observability.RequestIDFromContext(ctx)
	var uid *string
	if userID > 0 {
		s := strconv.FormatInt(userID, 10)
		uid = &s
	}

	logger.Log.WithFields(logrus.Fields{
		"level_audit": level,
		"request_id":  requestID,
		"user_id":     userID,
	}).Debug(text)

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        uid,
		Payload: AuditPayload{
			Level: level,
			Text:  text,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		logger.Log.WithError(err).Warn("audit publish failed")
	}
}
