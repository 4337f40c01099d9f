package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"org-access-api/backend/internal/telemetry/domain"
)

// Source is recorded on every event emitted by this service.
const Source = "org-api"

// EventEmitter emits domain events (e.g. to Kafka or OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// NewEvent returns an event with ID, Source, and CreatedAt set.
func NewEvent(eventType, orgID, userID, actorID string) *domain.Event {
	return &domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		OrgID:     orgID,
		UserID:    userID,
		ActorID:   actorID,
		Source:    Source,
		CreatedAt: time.Now().UTC(),
	}
}

// Fanout sends each event to every non-nil emitter and joins their errors.
type Fanout []EventEmitter

// Emit implements EventEmitter.
func (f Fanout) Emit(ctx context.Context, event *domain.Event) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
