package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobooks/internal/domain"
)

// eventRecorder writes notifications to the outbox. Recording is best-effort:
// a failure is logged and never undoes the change that produced the event.
type eventRecorder struct {
	outbox OutboxRepository
	idGen  IDGenerator
	logger zerolog.Logger
}

func (r *eventRecorder) record(ctx context.Context, aggregateType, aggregateID, eventType string, payload map[string]any) {
	if r == nil || r.outbox == nil {
		return
	}

	event := &domain.OutboxEvent{
		ID:            r.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		Published:     false,
	}
	if err := r.outbox.Create(ctx, event); err != nil {
		r.logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("aggregate_id", aggregateID).
			Msg("failed to record outbox event")
	}
}

func accountPayload(a *domain.Account) map[string]any {
	return map[string]any{
		"code": a.Code,
		"name": a.Name,
		"type": string(a.Type),
	}
}
