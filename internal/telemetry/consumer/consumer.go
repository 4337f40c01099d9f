// Package consumer reads domain events back from Kafka.
package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"org-access-api/backend/internal/telemetry/domain"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Handler processes one decoded event. Errors are logged and the message is skipped.
type Handler func(ctx context.Context, event *domain.Event) error

// NewReader returns a consumer-group reader for topic.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
}

// Run reads messages until ctx is done, decoding each into a domain event and passing it to
// handle. Undecodable messages and handler errors are logged, never fatal. Returns nil when ctx
// is cancelled.
func Run(ctx context.Context, r MessageReader, handle Handler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("consumer: read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		var event domain.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Warn("consumer: undecodable message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}
		if err := handle(ctx, &event); err != nil {
			log.Warn("consumer: handler failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.Type),
				zap.Error(err),
			)
		}
	}
}

// LogHandler returns a Handler that writes each event to log.
func LogHandler(log *zap.Logger) Handler {
	return func(ctx context.Context, e *domain.Event) error {
		log.Info("domain event",
			zap.String("event_id", e.ID),
			zap.String("event_type", e.Type),
			zap.String("org_id", e.OrgID),
			zap.String("user_id", e.UserID),
			zap.String("actor_id", e.ActorID),
			zap.String("source", e.Source),
			zap.Time("created_at", e.CreatedAt),
		)
		return nil
	}
}
