// Package events fans node changes out to the event journal and to the
// websocket clients of the owner.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Journal persists events so clients can catch up with GET /events.
type Journal interface {
	LogEvent(ctx context.Context, userID int64, eventType string, payload []byte) (int64, error)
}

type Broadcaster interface {
	PublishEvent(userID int64, data []byte)
}

type Message struct {
	ID        int64           `json:"id,omitempty"`
	EventType string          `json:"event_type"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload"`
}

type Publisher struct {
	journal Journal
	hub     Broadcaster
	logger  *slog.Logger
}

// NewPublisher returns a publisher. Either journal or hub may be nil.
func NewPublisher(journal Journal, hub Broadcaster, logger *slog.Logger) *Publisher {
	return &Publisher{journal: journal, hub: hub, logger: logger}
}

// Publish never fails the caller: the change it reports is already committed.
func (p *Publisher) Publish(ctx context.Context, ownerID int64, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode event payload", "event_type", eventType, "error", err)
		return
	}

	msg := Message{EventType: eventType, EventTime: time.Now().UTC(), Payload: data}

	if p.journal != nil {
		id, err := p.journal.LogEvent(context.WithoutCancel(ctx), ownerID, eventType, data)
		if err != nil {
			p.logger.ErrorContext(ctx, "failed to journal event", "event_type", eventType, "user_id", ownerID, "error", err)
		} else {
			msg.ID = id
		}
	}

	if p.hub == nil {
		return
	}
	encoded, err := json.Marshal(msg)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode event", "event_type", eventType, "error", err)
		return
	}
	p.hub.PublishEvent(ownerID, encoded)
}
