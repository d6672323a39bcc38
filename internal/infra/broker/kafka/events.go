package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventPublisher emits compact JSON domain events. Publishing is best
// effort from the caller's point of view: failures are logged and never
// fail the originating request.
type EventPublisher struct {
	Producer    *Producer
	TopicPrefix string
	Logger      *slog.Logger
}

type event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

// Emit publishes one event keyed by aggregate id. A nil publisher or
// producer is a silent no-op so kafka stays optional in local setups.
func (p *EventPublisher) Emit(ctx context.Context, topic, aggregateID string, data map[string]any) {
	if p == nil || p.Producer == nil {
		return
	}
	payload, err := json.Marshal(event{
		ID:         uuid.NewString(),
		Type:       topic + ".v1",
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		if p.Logger != nil {
			p.Logger.Error("event marshal failed", "topic", topic, "error", err)
		}
		return
	}
	headers := map[string]string{"content-type": "application/json"}
	if err := p.Producer.Publish(ctx, p.TopicPrefix+topic, aggregateID, payload, headers); err != nil && p.Logger != nil {
		p.Logger.Warn("event publish failed", "topic", topic, "aggregate_id", aggregateID, "error", err)
	}
}
